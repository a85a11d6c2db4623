package core

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MatrixSize is the byte size of one column-major mat4x4<f32>.
const MatrixSize = 64

// ShadowSampler reports how visible world is from spot light index light, in [0,1].
type ShadowSampler interface {
	Visibility(light int, world mgl32.Vec3, bias float32) float32
}

// ShadowMap is a CPU copy of a host shadow atlas: linear light-space depth in
// [0,1], row-major, plus one world-to-atlas matrix per shadowed spot light.
// Lights without a matrix are fully lit.
type ShadowMap struct {
	Width         int
	Height        int
	Depth         []float32
	WorldToShadow []mgl32.Mat4
}

func (s *ShadowMap) Visibility(light int, world mgl32.Vec3, bias float32) float32 {
	if s == nil || light < 0 || light >= len(s.WorldToShadow) || s.Width == 0 || s.Height == 0 {
		return 1
	}
	p := s.WorldToShadow[light].Mul4x1(world.Vec4(1))
	if p.W() <= 0 {
		return 1
	}
	p = p.Mul(1 / p.W())
	if p.X() < 0 || p.X() >= 1 || p.Y() < 0 || p.Y() >= 1 || p.Z() < 0 || p.Z() > 1 {
		return 1
	}
	tx := int(p.X() * float32(s.Width))
	ty := int(p.Y() * float32(s.Height))
	if p.Z() <= s.Depth[ty*s.Width+tx]+bias {
		return 1
	}
	return 0
}

func MarshalMatrices(ms []mgl32.Mat4) []byte {
	buf := make([]byte, len(ms)*MatrixSize)
	for i, m := range ms {
		for j, v := range m {
			binary.LittleEndian.PutUint32(buf[i*MatrixSize+j*4:], math.Float32bits(v))
		}
	}
	return buf
}

func UnmarshalMatrices(data []byte, count int) ([]mgl32.Mat4, error) {
	if count < 0 || len(data) < count*MatrixSize {
		return nil, fmt.Errorf("matrix data: have %d bytes, need %d", len(data), count*MatrixSize)
	}
	out := make([]mgl32.Mat4, count)
	for i := range out {
		for j := 0; j < 16; j++ {
			out[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*MatrixSize+j*4:]))
		}
	}
	return out, nil
}

// MarshalFloats packs R32Float texel data such as a shadow depth atlas.
func MarshalFloats(vs []float32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func UnmarshalFloats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
