package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CPU reference implementations of the froxel kernels. They follow the WGSL in
// froxelrt/rt/shaders texel for texel and back the software device.

// InjectionInputs are the resources bound to the light injection kernel.
type InjectionInputs struct {
	Uniforms FroxelUniforms
	Lights   []SpotLight
	Shadow   ShadowSampler
}

// CellWorldPosition reconstructs the world-space centre of froxel (x, y, z).
func CellWorldPosition(u *FroxelUniforms, x, y, z int) mgl32.Vec3 {
	uu := (float32(x) + 0.5) / float32(u.Resolution[0])
	vv := (float32(y) + 0.5) / float32(u.Resolution[1])
	ray := u.FrustumRays.Interpolate(uu, vv)
	scale := float32(0)
	if u.Far != 0 {
		scale = u.SliceDepth(z) / u.Far
	}
	return u.CameraPosition.Add(ray.Mul(scale))
}

// SpotContribution is the un-shadowed radiance a spot light scatters towards
// the camera at world, before multiplying by the scattering coefficient.
// viewDir points from the camera to world.
func SpotContribution(l *SpotLight, world, viewDir mgl32.Vec3, anisotropy float32) mgl32.Vec3 {
	if l.Range <= 0 {
		return mgl32.Vec3{}
	}
	toLight := l.Position.Sub(world)
	dist := toLight.Len()
	if dist >= l.Range {
		return mgl32.Vec3{}
	}

	var dirToLight mgl32.Vec3
	if dist > 1e-4 {
		dirToLight = toLight.Mul(1 / dist)
	} else {
		dirToLight = l.Direction.Mul(-1)
	}

	cone := coneFalloff(-dirToLight.Dot(l.Direction), l.OuterCos, l.InnerCos)
	if cone <= 0 {
		return mgl32.Vec3{}
	}

	r := dist / l.Range
	fall := saturate(1 - r*r)
	fall *= fall

	phase := HenyeyGreenstein(dirToLight.Dot(viewDir), anisotropy)
	return l.Color.Mul(cone * fall * phase)
}

// InjectCell evaluates the injection kernel for one froxel: rgb is in-scattered
// radiance density, a is extinction.
func InjectCell(in *InjectionInputs, x, y, z int) mgl32.Vec4 {
	u := &in.Uniforms
	world := CellWorldPosition(u, x, y, z)
	view := world.Sub(u.CameraPosition)
	if view.Len() > 0 {
		view = view.Normalize()
	}

	count := int(u.SpotLightCount)
	if count > len(in.Lights) {
		count = len(in.Lights)
	}

	var radiance mgl32.Vec3
	for i := 0; i < count; i++ {
		c := SpotContribution(&in.Lights[i], world, view, u.Media.Anisotropy)
		if c == (mgl32.Vec3{}) {
			continue
		}
		vis := float32(1)
		if in.Shadow != nil {
			vis = in.Shadow.Visibility(i, world, u.ShadowBias)
		}
		radiance = radiance.Add(c.Mul(vis))
	}

	s := radiance.Mul(u.Media.Scattering)
	return mgl32.Vec4{s[0], s[1], s[2], u.Media.Extinction()}
}

// Inject runs the injection kernel over the dispatch grid, skipping invocations
// outside the volume as the WGSL bounds check does. Returns texels written.
func Inject(dst *Volume, in *InjectionInputs, groups, groupSize [3]uint32) int {
	written := 0
	forEachInvocation(groups, groupSize, func(x, y, z int) {
		if !dst.Contains(x, y, z) {
			return
		}
		dst.Set(x, y, z, InjectCell(in, x, y, z))
		written++
	})
	return written
}

// ScatterColumn integrates column (x, y) front to back, near slice first.
// Each output texel holds accumulated in-scattering and the transmittance
// from the camera through the far side of that slice.
func ScatterColumn(dst, src *Volume, u *FroxelUniforms, x, y int) {
	ds := u.SliceThickness()
	var accum mgl32.Vec3
	transmittance := float32(1)
	for z := 0; z < src.Extent[2]; z++ {
		s := src.At(x, y, z)
		ext := s.W()
		sliceT := float32(math.Exp(float64(-ext * ds)))

		var integ mgl32.Vec3
		if ext > 1e-6 {
			integ = s.Vec3().Mul((1 - sliceT) / ext)
		} else {
			integ = s.Vec3().Mul(ds)
		}
		accum = accum.Add(integ.Mul(transmittance))
		transmittance *= sliceT

		dst.Set(x, y, z, accum.Vec4(transmittance))
	}
}

// Scatter runs the scattering kernel. As on the GPU, each column is walked
// once by its z=0 invocation and the other z invocations exit.
func Scatter(dst, src *Volume, u *FroxelUniforms, groups, groupSize [3]uint32) int {
	columns := 0
	forEachInvocation(groups, groupSize, func(x, y, z int) {
		if z != 0 || !dst.Contains(x, y, 0) {
			return
		}
		ScatterColumn(dst, src, u, x, y)
		columns++
	})
	return columns
}

// CompositePixel blends the scattering volume over one colour pixel. depth01 is
// linear scene depth divided by the far clip; (px, py) is the pixel in a
// width x height target with row 0 at the top.
func CompositePixel(src mgl32.Vec4, depth01, nearOverFar float32, vol *Volume, px, py, width, height int) mgl32.Vec4 {
	w := float32(1)
	if nearOverFar < 1 {
		w = saturate((depth01 - nearOverFar) / (1 - nearOverFar))
	}
	zi := clampInt(int(math.Ceil(float64(w*float32(vol.Extent[2]))))-1, 0, vol.Extent[2]-1)

	u := (float32(px) + 0.5) / float32(width)
	v := 1 - (float32(py)+0.5)/float32(height)
	xi := clampInt(int(u*float32(vol.Extent[0])), 0, vol.Extent[0]-1)
	yi := clampInt(int(v*float32(vol.Extent[1])), 0, vol.Extent[1]-1)

	s := vol.At(xi, yi, zi)
	c := src.Vec3().Mul(s.W()).Add(s.Vec3())
	return c.Vec4(src.W())
}

func forEachInvocation(groups, groupSize [3]uint32, fn func(x, y, z int)) {
	for gz := uint32(0); gz < groups[2]; gz++ {
		for gy := uint32(0); gy < groups[1]; gy++ {
			for gx := uint32(0); gx < groups[0]; gx++ {
				for lz := uint32(0); lz < groupSize[2]; lz++ {
					for ly := uint32(0); ly < groupSize[1]; ly++ {
						for lx := uint32(0); lx < groupSize[0]; lx++ {
							fn(int(gx*groupSize[0]+lx), int(gy*groupSize[1]+ly), int(gz*groupSize[2]+lz))
						}
					}
				}
			}
		}
	}
}

// coneFalloff is smoothstep(outer, inner, cosAngle), degrading to a hard edge
// when the two cosines coincide.
func coneFalloff(cosAngle, outerCos, innerCos float32) float32 {
	if innerCos-outerCos <= 1e-6 {
		if cosAngle >= outerCos {
			return 1
		}
		return 0
	}
	t := saturate((cosAngle - outerCos) / (innerCos - outerCos))
	return t * t * (3 - 2*t)
}

func saturate(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
