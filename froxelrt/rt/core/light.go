package core

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

// LightHandle is a read-only view of one scene light for the current frame.
// Angles are full cone angles in degrees.
type LightHandle interface {
	Type() LightType
	Position() mgl32.Vec3
	Forward() mgl32.Vec3
	Range() float32
	Color() [3]float32
	Intensity() float32
	SpotAngle() float32
	InnerSpotAngle() float32
}

// LightRegistry is queried once per frame for the active point-like lights.
// Returned order carries no meaning.
type LightRegistry interface {
	EnumerateActivePointLights() []LightHandle
}

// SpotLightSize is the packed byte size of one SpotLight record.
const SpotLightSize = 48

// SpotLight is the GPU record read by the injection kernel. Packed as 12 f32:
//
//	position.xyz  @0
//	direction.xyz @12
//	range         @24
//	color.rgb     @28  (linear, premultiplied by intensity)
//	inner_cos     @40
//	outer_cos     @44
type SpotLight struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Range     float32
	Color     mgl32.Vec3
	InnerCos  float32
	OuterCos  float32
}

// SpotLightFromHandle builds the record for h. The inner angle is clamped to
// [0, outer] and the outer angle to [0, 180] so InnerCos >= OuterCos.
func SpotLightFromHandle(h LightHandle) SpotLight {
	outer := clampAngle(h.SpotAngle(), 0, 180)
	inner := clampAngle(h.InnerSpotAngle(), 0, outer)

	dir := h.Forward()
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}

	c := h.Color()
	k := h.Intensity()
	return SpotLight{
		Position:  h.Position(),
		Direction: dir,
		Range:     h.Range(),
		Color:     mgl32.Vec3{c[0] * k, c[1] * k, c[2] * k},
		InnerCos:  HalfAngleCos(inner),
		OuterCos:  HalfAngleCos(outer),
	}
}

// HalfAngleCos returns cos(angle/2) for a full cone angle in degrees.
func HalfAngleCos(degrees float32) float32 {
	return float32(math.Cos(float64(degrees) * math.Pi / 180.0 * 0.5))
}

func clampAngle(v, lo, hi float32) float32 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *SpotLight) floats() [12]float32 {
	return [12]float32{
		s.Position[0], s.Position[1], s.Position[2],
		s.Direction[0], s.Direction[1], s.Direction[2],
		s.Range,
		s.Color[0], s.Color[1], s.Color[2],
		s.InnerCos,
		s.OuterCos,
	}
}

// Marshal serializes the record little endian for GPU upload.
func (s *SpotLight) Marshal() []byte {
	buf := make([]byte, SpotLightSize)
	s.put(buf)
	return buf
}

func (s *SpotLight) put(buf []byte) {
	for i, v := range s.floats() {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

// MarshalSpotLights packs records back to back.
func MarshalSpotLights(lights []SpotLight) []byte {
	buf := make([]byte, len(lights)*SpotLightSize)
	for i := range lights {
		lights[i].put(buf[i*SpotLightSize:])
	}
	return buf
}

// UnmarshalSpotLights decodes count records from data.
func UnmarshalSpotLights(data []byte, count int) ([]SpotLight, error) {
	if count < 0 || len(data) < count*SpotLightSize {
		return nil, fmt.Errorf("spot light data: have %d bytes, need %d", len(data), count*SpotLightSize)
	}
	out := make([]SpotLight, count)
	for i := range out {
		var f [12]float32
		for j := range f {
			f[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*SpotLightSize+j*4:]))
		}
		out[i] = SpotLight{
			Position:  mgl32.Vec3{f[0], f[1], f[2]},
			Direction: mgl32.Vec3{f[3], f[4], f[5]},
			Range:     f[6],
			Color:     mgl32.Vec3{f[7], f[8], f[9]},
			InnerCos:  f[10],
			OuterCos:  f[11],
		}
	}
	return out, nil
}
