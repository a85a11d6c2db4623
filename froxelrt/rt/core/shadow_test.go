package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatShadowMap(depth float32) *ShadowMap {
	s := &ShadowMap{Width: 4, Height: 4, Depth: make([]float32, 16), WorldToShadow: []mgl32.Mat4{mgl32.Ident4()}}
	for i := range s.Depth {
		s.Depth[i] = depth
	}
	return s
}

func TestShadowMapVisibility(t *testing.T) {
	s := flatShadowMap(0.5)

	assert.Equal(t, float32(0), s.Visibility(0, mgl32.Vec3{0.5, 0.5, 0.8}, 0.01))
	assert.Equal(t, float32(1), s.Visibility(0, mgl32.Vec3{0.5, 0.5, 0.4}, 0.01))
	// bias lets surfaces just behind the stored depth through
	assert.Equal(t, float32(1), s.Visibility(0, mgl32.Vec3{0.5, 0.5, 0.505}, 0.01))
	// outside the atlas is lit
	assert.Equal(t, float32(1), s.Visibility(0, mgl32.Vec3{1.5, 0.5, 0.8}, 0))
	assert.Equal(t, float32(1), s.Visibility(0, mgl32.Vec3{0.5, -0.1, 0.8}, 0))
	// lights without a matrix are lit
	assert.Equal(t, float32(1), s.Visibility(1, mgl32.Vec3{0.5, 0.5, 0.8}, 0))

	var none *ShadowMap
	assert.Equal(t, float32(1), none.Visibility(0, mgl32.Vec3{}, 0))
}

func TestShadowMapTexelLookup(t *testing.T) {
	s := flatShadowMap(1)
	// occluder in texel (3, 0) only
	s.Depth[3] = 0.2
	assert.Equal(t, float32(0), s.Visibility(0, mgl32.Vec3{0.9, 0.1, 0.5}, 0))
	assert.Equal(t, float32(1), s.Visibility(0, mgl32.Vec3{0.1, 0.9, 0.5}, 0))
}

func TestMatrixPacking(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	buf := MarshalMatrices([]mgl32.Mat4{mgl32.Ident4(), m})
	require.Len(t, buf, 2*MatrixSize)

	back, err := UnmarshalMatrices(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, m, back[1])

	_, err = UnmarshalMatrices(buf, 3)
	assert.Error(t, err)

	assert.Equal(t, []float32{1, 0.5}, UnmarshalFloats(MarshalFloats([]float32{1, 0.5})))
}
