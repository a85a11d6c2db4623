package core

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLight struct {
	typ       LightType
	pos, fwd  mgl32.Vec3
	rng       float32
	color     [3]float32
	intensity float32
	outer     float32
	inner     float32
}

func (l fakeLight) Type() LightType         { return l.typ }
func (l fakeLight) Position() mgl32.Vec3    { return l.pos }
func (l fakeLight) Forward() mgl32.Vec3     { return l.fwd }
func (l fakeLight) Range() float32          { return l.rng }
func (l fakeLight) Color() [3]float32       { return l.color }
func (l fakeLight) Intensity() float32      { return l.intensity }
func (l fakeLight) SpotAngle() float32      { return l.outer }
func (l fakeLight) InnerSpotAngle() float32 { return l.inner }

func TestSpotLightFromHandle(t *testing.T) {
	s := SpotLightFromHandle(fakeLight{
		typ:       LightTypeSpot,
		pos:       mgl32.Vec3{1, 2, 3},
		fwd:       mgl32.Vec3{0, 0, -4},
		rng:       25,
		color:     [3]float32{1, 0.5, 0.25},
		intensity: 4,
		outer:     60,
		inner:     30,
	})

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, s.Position)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, s.Direction)
	assert.Equal(t, float32(25), s.Range)
	assert.Equal(t, mgl32.Vec3{4, 2, 1}, s.Color)
	assert.InDelta(t, math.Cos(math.Pi/6), s.OuterCos, 1e-6)
	assert.InDelta(t, math.Cos(math.Pi/12), s.InnerCos, 1e-6)
}

func TestInnerCosNeverBelowOuterCos(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cases := [][2]float32{{0, 0}, {180, 180}, {10, 90}, {-5, 30}, {200, -10}, {45, 45}}
	for i := 0; i < 500; i++ {
		cases = append(cases, [2]float32{r.Float32()*220 - 20, r.Float32()*220 - 20})
	}
	for _, c := range cases {
		s := SpotLightFromHandle(fakeLight{typ: LightTypeSpot, fwd: mgl32.Vec3{0, -1, 0}, outer: c[0], inner: c[1]})
		if s.InnerCos < s.OuterCos {
			t.Fatalf("outer %v inner %v: innerCos %v < outerCos %v", c[0], c[1], s.InnerCos, s.OuterCos)
		}
	}
}

func TestSpotLightPackedLayout(t *testing.T) {
	s := SpotLight{
		Position:  mgl32.Vec3{1, 2, 3},
		Direction: mgl32.Vec3{4, 5, 6},
		Range:     7,
		Color:     mgl32.Vec3{8, 9, 10},
		InnerCos:  11,
		OuterCos:  12,
	}
	buf := s.Marshal()
	require.Len(t, buf, SpotLightSize)
	assert.Equal(t, 48, SpotLightSize)

	at := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1), at(0))
	assert.Equal(t, float32(4), at(12))
	assert.Equal(t, float32(7), at(24))
	assert.Equal(t, float32(8), at(28))
	assert.Equal(t, float32(11), at(40))
	assert.Equal(t, float32(12), at(44))

	packed := MarshalSpotLights([]SpotLight{s, s})
	require.Len(t, packed, 2*SpotLightSize)
	assert.Equal(t, buf, packed[SpotLightSize:])

	back, err := UnmarshalSpotLights(packed, 2)
	require.NoError(t, err)
	assert.Equal(t, []SpotLight{s, s}, back)
}

func TestUnmarshalSpotLightsShortData(t *testing.T) {
	_, err := UnmarshalSpotLights(make([]byte, SpotLightSize), 2)
	assert.Error(t, err)

	// an empty light list still binds one zeroed slot
	lights, err := UnmarshalSpotLights(make([]byte, SpotLightSize), 0)
	require.NoError(t, err)
	assert.Empty(t, lights)
}
