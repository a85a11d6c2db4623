package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/half"
)

// Volume is a CPU-side RGBA16F 3D texture laid out x-fastest, then y, then z.
type Volume struct {
	Extent [3]int
	Texels []half.Half
}

func NewVolume(x, y, z int) *Volume {
	return &Volume{
		Extent: [3]int{x, y, z},
		Texels: make([]half.Half, x*y*z*4),
	}
}

func (v *Volume) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < v.Extent[0] && y < v.Extent[1] && z < v.Extent[2]
}

func (v *Volume) offset(x, y, z int) int {
	return ((z*v.Extent[1]+y)*v.Extent[0] + x) * 4
}

// At returns the texel at (x,y,z); out-of-range reads return zero like textureLoad.
func (v *Volume) At(x, y, z int) mgl32.Vec4 {
	if !v.Contains(x, y, z) {
		return mgl32.Vec4{}
	}
	i := v.offset(x, y, z)
	return mgl32.Vec4{
		v.Texels[i].Float32(),
		v.Texels[i+1].Float32(),
		v.Texels[i+2].Float32(),
		v.Texels[i+3].Float32(),
	}
}

// Set stores c at (x,y,z) rounded to half precision; out-of-range writes are dropped.
func (v *Volume) Set(x, y, z int, c mgl32.Vec4) {
	if !v.Contains(x, y, z) {
		return
	}
	i := v.offset(x, y, z)
	for k := 0; k < 4; k++ {
		v.Texels[i+k] = half.FromFloat32(c[k])
	}
}

func (v *Volume) Clear() {
	for i := range v.Texels {
		v.Texels[i] = half.Zero
	}
}

// Slice copies depth slice z out as float32 RGBA, row-major.
func (v *Volume) Slice(z int) []float32 {
	n := v.Extent[0] * v.Extent[1] * 4
	out := make([]float32, n)
	if z < 0 || z >= v.Extent[2] {
		return out
	}
	half.ConvertBatchToFloat32(out, v.Texels[v.offset(0, 0, z):v.offset(0, 0, z)+n])
	return out
}
