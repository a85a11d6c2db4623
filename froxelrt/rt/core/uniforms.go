package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FroxelUniformsSize is the byte size of the FroxelParams uniform block.
const FroxelUniformsSize = 144

// FroxelUniforms mirrors the WGSL FroxelParams struct shared by both froxel kernels.
//
//	frustum_rays        array<vec4<f32>, 4> @0
//	camera_pos          vec4<f32>           @64
//	camera_forward      vec4<f32>           @80
//	resolution          vec4<f32>           @96
//	near_clip           f32                 @112
//	far_clip            f32                 @116
//	spot_light_count    u32                 @120
//	shadow_matrix_count u32                 @124
//	scattering          f32                 @128
//	absorption          f32                 @132
//	anisotropy          f32                 @136
//	shadow_bias         f32                 @140
type FroxelUniforms struct {
	FrustumRays       FrustumRays
	CameraPosition    mgl32.Vec3
	CameraForward     mgl32.Vec3
	Resolution        [3]uint32
	Near              float32
	Far               float32
	SpotLightCount    uint32
	ShadowMatrixCount uint32
	Media             Media
	ShadowBias        float32
}

func (u *FroxelUniforms) Marshal() []byte {
	buf := make([]byte, FroxelUniformsSize)
	w := byteWriter{buf: buf}
	for _, r := range u.FrustumRays {
		w.vec4(r)
	}
	w.vec4(u.CameraPosition.Vec4(1))
	w.vec4(u.CameraForward.Vec4(0))
	w.vec4(mgl32.Vec4{float32(u.Resolution[0]), float32(u.Resolution[1]), float32(u.Resolution[2]), 0})
	w.f32(u.Near)
	w.f32(u.Far)
	w.u32(u.SpotLightCount)
	w.u32(u.ShadowMatrixCount)
	w.f32(u.Media.Scattering)
	w.f32(u.Media.Absorption)
	w.f32(u.Media.Anisotropy)
	w.f32(u.ShadowBias)
	return buf
}

// SliceThickness is the view-depth extent of one froxel slice.
func (u *FroxelUniforms) SliceThickness() float32 {
	if u.Resolution[2] == 0 {
		return 0
	}
	return (u.Far - u.Near) / float32(u.Resolution[2])
}

// SliceDepth is the view depth at the centre of slice z. Slice 0 touches the near plane.
func (u *FroxelUniforms) SliceDepth(z int) float32 {
	return u.Near + u.SliceThickness()*(float32(z)+0.5)
}

// BlendUniformsSize is the byte size of the BlendParams uniform block.
const BlendUniformsSize = 32

// BlendUniforms mirrors the WGSL BlendParams struct of the compositing program.
//
//	resolution    vec4<f32> @0
//	near_over_far f32       @16
//	(pad to 32)
type BlendUniforms struct {
	Resolution  [3]uint32
	NearOverFar float32
}

func (u *BlendUniforms) Marshal() []byte {
	buf := make([]byte, BlendUniformsSize)
	w := byteWriter{buf: buf}
	w.vec4(mgl32.Vec4{float32(u.Resolution[0]), float32(u.Resolution[1]), float32(u.Resolution[2]), 0})
	w.f32(u.NearOverFar)
	return buf
}

type byteWriter struct {
	buf []byte
	off int
}

func (w *byteWriter) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

func (w *byteWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *byteWriter) vec4(v mgl32.Vec4) {
	for _, c := range v {
		w.f32(c)
	}
}
