package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFroxelUniformsLayout(t *testing.T) {
	cam := NewCameraState()
	u := FroxelUniforms{
		FrustumRays:       ComputeFrustumRays(cam),
		CameraPosition:    cam.Position,
		CameraForward:     cam.GetForward(),
		Resolution:        [3]uint32{160, 90, 128},
		Near:              cam.Near,
		Far:               cam.Far,
		SpotLightCount:    3,
		ShadowMatrixCount: 2,
		Media:             DefaultMedia(),
		ShadowBias:        0.01,
	}
	buf := u.Marshal()
	require.Len(t, buf, FroxelUniformsSize)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }

	assert.Equal(t, u.FrustumRays[CornerTopRight].X(), f32(32))
	assert.Equal(t, cam.Position.Y(), f32(68))
	assert.Equal(t, float32(1), f32(76))
	assert.Equal(t, float32(160), f32(96))
	assert.Equal(t, float32(128), f32(104))
	assert.Equal(t, cam.Near, f32(112))
	assert.Equal(t, cam.Far, f32(116))
	assert.Equal(t, uint32(3), u32(120))
	assert.Equal(t, uint32(2), u32(124))
	assert.Equal(t, u.Media.Scattering, f32(128))
	assert.Equal(t, u.Media.Absorption, f32(132))
	assert.Equal(t, u.Media.Anisotropy, f32(136))
	assert.Equal(t, float32(0.01), f32(140))
}

func TestSliceDepth(t *testing.T) {
	u := FroxelUniforms{Resolution: [3]uint32{1, 1, 10}, Near: 1, Far: 101}
	assert.Equal(t, float32(10), u.SliceThickness())
	assert.Equal(t, float32(6), u.SliceDepth(0))
	assert.Equal(t, float32(96), u.SliceDepth(9))
}

func TestBlendUniformsLayout(t *testing.T) {
	u := BlendUniforms{Resolution: [3]uint32{160, 90, 128}, NearOverFar: 0.3 / 1000}
	buf := u.Marshal()
	require.Len(t, buf, BlendUniformsSize)
	assert.Equal(t, float32(90), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, u.NearOverFar, math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])))
}

func TestMediaPhase(t *testing.T) {
	m := DefaultMedia()
	assert.InDelta(t, 0.025, m.Extinction(), 1e-6)

	// isotropic medium scatters 1/4pi in every direction
	assert.InDelta(t, 1/(4*math.Pi), HenyeyGreenstein(0.3, 0), 1e-6)
	// forward scattering dominates for g > 0
	assert.Greater(t, HenyeyGreenstein(1, 0.5), HenyeyGreenstein(-1, 0.5))

	// HG integrates to one over the sphere
	sum := 0.0
	const n = 4000
	for i := 0; i < n; i++ {
		mu := -1 + (float64(i)+0.5)*2/n
		sum += float64(HenyeyGreenstein(float32(mu), 0.3)) * 2 / n
	}
	assert.InDelta(t, 1, 2*math.Pi*sum, 1e-3)
}
