package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SpotBaseForward is the local cone axis of a spot light before rotation.
var SpotBaseForward = mgl32.Vec3{0, -1, 0}

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// Forward rotates SpotBaseForward into world space.
func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(SpotBaseForward).Normalize()
}

// LookTowards orients the transform so Forward points along dir.
func (t *Transform) LookTowards(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	t.Rotation = mgl32.QuatBetweenVectors(SpotBaseForward, dir.Normalize())
}
