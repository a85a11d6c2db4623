package core

import "github.com/go-gl/mathgl/mgl32"

// Frustum corner indices. The injection kernel interpolates
// bottom = mix(BL, BR, u), top = mix(TL, TR, u), ray = mix(bottom, top, v)
// with v = 0 on the bottom row of the froxel grid.
const (
	CornerBottomLeft = iota
	CornerTopLeft
	CornerTopRight
	CornerBottomRight
)

// FrustumRays holds camera-to-far-corner vectors in world space; w is always 0.
type FrustumRays [4]mgl32.Vec4

// ComputeFrustumRays returns corner_world - camera_position for the four
// far-plane corners. The camera must not be nil.
func ComputeFrustumRays(cam *CameraState) FrustumRays {
	var rays FrustumRays
	corners := cam.FarPlaneCorners()
	for i, corner := range corners {
		rays[i] = corner.Sub(cam.Position).Vec4(0)
	}
	return rays
}

// Interpolate returns the bilinear ray through normalized screen coordinates
// (u, v) in [0,1], with (0,0) at the bottom-left corner.
func (r FrustumRays) Interpolate(u, v float32) mgl32.Vec3 {
	bottom := lerp3(r[CornerBottomLeft].Vec3(), r[CornerBottomRight].Vec3(), u)
	top := lerp3(r[CornerTopLeft].Vec3(), r[CornerTopRight].Vec3(), u)
	return lerp3(bottom, top, v)
}

func lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
