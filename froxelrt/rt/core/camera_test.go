package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func closeEnough(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func vecClose(t *testing.T, want, got mgl32.Vec3, eps float32) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if !closeEnough(want[i], got[i], eps) {
			t.Errorf("component %d: want %v, got %v", i, want, got)
			return
		}
	}
}

func testCameras() []*CameraState {
	a := NewCameraState()

	b := NewCameraState()
	b.Position = mgl32.Vec3{-4, 7, 3}
	b.Yaw = 0.7
	b.Pitch = -0.3
	b.FovY = 75
	b.Aspect = 1.25
	b.Near = 0.5
	b.Far = 200

	c := NewCameraState()
	c.Yaw = -2.1
	c.Pitch = 0.9
	c.Aspect = 2

	return []*CameraState{a, b, c}
}

func TestCameraBasisIsOrthonormal(t *testing.T) {
	for _, cam := range testCameras() {
		f, r, u := cam.GetForward(), cam.GetRight(), cam.GetUp()
		assert.InDelta(t, 1, f.Len(), 1e-5)
		assert.InDelta(t, 1, r.Len(), 1e-5)
		assert.InDelta(t, 1, u.Len(), 1e-5)
		assert.InDelta(t, 0, f.Dot(r), 1e-5)
		assert.InDelta(t, 0, f.Dot(u), 1e-5)
		assert.InDelta(t, 0, r.Dot(u), 1e-5)
		// world up is never below the horizon of the camera
		assert.GreaterOrEqual(t, u.Z(), float32(0))
	}
}

func TestDefaultCameraLooksDownNegativeY(t *testing.T) {
	cam := NewCameraState()
	vecClose(t, mgl32.Vec3{0, -1, 0}, cam.GetForward(), 1e-6)
	vecClose(t, mgl32.Vec3{-1, 0, 0}, cam.GetRight(), 1e-6)
	vecClose(t, mgl32.Vec3{0, 0, 1}, cam.GetUp(), 1e-6)
}

// Far corners project to the NDC corners in FrustumRays order.
func TestFarPlaneCornersProjectToNDCCorners(t *testing.T) {
	want := [4][2]float32{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}}
	for _, cam := range testCameras() {
		vp := cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix())
		for i, c := range cam.FarPlaneCorners() {
			clip := vp.Mul4x1(c.Vec4(1))
			ndc := clip.Vec3().Mul(1 / clip.W())
			if !closeEnough(ndc.X(), want[i][0], 1e-3) || !closeEnough(ndc.Y(), want[i][1], 1e-3) {
				t.Errorf("corner %d: want ndc %v, got %v", i, want[i], ndc)
			}
			assert.InDelta(t, 1, ndc.Z(), 1e-3)
		}
	}
}

func TestFrustumRays(t *testing.T) {
	for _, cam := range testCameras() {
		rays := ComputeFrustumRays(cam)
		corners := cam.FarPlaneCorners()
		for i := range rays {
			assert.Equal(t, float32(0), rays[i].W())
			vecClose(t, corners[i].Sub(cam.Position), rays[i].Vec3(), 1e-3)
			// every ray reaches the far plane along forward
			assert.InDelta(t, cam.Far, rays[i].Vec3().Dot(cam.GetForward()), 1e-2)
		}

		center := rays.Interpolate(0.5, 0.5)
		vecClose(t, cam.GetForward().Mul(cam.Far), center, 1e-2)

		vecClose(t, rays[CornerBottomLeft].Vec3(), rays.Interpolate(0, 0), 1e-4)
		vecClose(t, rays[CornerTopLeft].Vec3(), rays.Interpolate(0, 1), 1e-4)
		vecClose(t, rays[CornerTopRight].Vec3(), rays.Interpolate(1, 1), 1e-4)
		vecClose(t, rays[CornerBottomRight].Vec3(), rays.Interpolate(1, 0), 1e-4)
	}
}

func TestInterpolatedRayUnprojects(t *testing.T) {
	cam := testCameras()[1]
	rays := ComputeFrustumRays(cam)
	vp := cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix())

	for _, uv := range [][2]float32{{0.25, 0.75}, {0.9, 0.1}, {0.5, 0.3}} {
		p := cam.Position.Add(rays.Interpolate(uv[0], uv[1]).Mul(0.25))
		clip := vp.Mul4x1(p.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		assert.InDelta(t, uv[0]*2-1, ndc.X(), 1e-3)
		assert.InDelta(t, uv[1]*2-1, ndc.Y(), 1e-3)
	}
}

func TestNearOverFar(t *testing.T) {
	cam := NewCameraState()
	assert.Equal(t, float32(0.3)/float32(1000), cam.NearOverFar())
	cam.Far = 0
	assert.Equal(t, float32(0), cam.NearOverFar())
}
