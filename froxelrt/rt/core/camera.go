package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is the per-frame camera snapshot the froxel passes read. Z is up.
type CameraState struct {
	Position mgl32.Vec3
	Yaw      float32 // radians
	Pitch    float32 // radians
	FovY     float32 // degrees, full vertical angle
	Aspect   float32
	Near     float32
	Far      float32

	Speed       float32
	Sensitivity float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{0, 2, 20},
		FovY:        60,
		Aspect:      16.0 / 9.0,
		Near:        0.3,
		Far:         1000,
		Speed:       10.0,
		Sensitivity: 0.003,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Z-up: Forward in XY plane, Z for pitch
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

// GetRight is forward x world-up, computed from yaw alone so it stays defined
// when looking straight up or down.
func (c *CameraState) GetRight() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(-math.Cos(float64(c.Yaw))),
		float32(-math.Sin(float64(c.Yaw))),
		0,
	}
}

func (c *CameraState) GetUp() mgl32.Vec3 {
	return c.GetRight().Cross(c.GetForward())
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.GetForward())
	return mgl32.LookAtV(eye, target, c.GetUp())
}

func (c *CameraState) GetProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// NearOverFar is the clip ratio the compositor uses to map linear depth to slices.
func (c *CameraState) NearOverFar() float32 {
	if c.Far == 0 {
		return 0
	}
	return c.Near / c.Far
}

// FarPlaneCorners returns the world-space corners of the far plane in
// FrustumRays order: bottom-left, top-left, top-right, bottom-right.
func (c *CameraState) FarPlaneCorners() [4]mgl32.Vec3 {
	forward := c.GetForward()
	right := c.GetRight()
	up := c.GetUp()

	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	halfH := c.Far * float32(math.Tan(float64(mgl32.DegToRad(c.FovY))*0.5))
	halfW := halfH * aspect

	center := c.Position.Add(forward.Mul(c.Far))
	r := right.Mul(halfW)
	u := up.Mul(halfH)

	return [4]mgl32.Vec3{
		center.Sub(r).Sub(u),
		center.Sub(r).Add(u),
		center.Add(r).Add(u),
		center.Add(r).Sub(u),
	}
}
