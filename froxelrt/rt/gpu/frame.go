package gpu

import (
	"github.com/gekko3d/volumetric/froxelrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// ShadowInput is the host-owned shadow atlas borrowed for one frame. Matrix i
// maps world space to atlas space for spot light i.
type ShadowInput struct {
	Texture       Texture
	WorldToShadow []mgl32.Mat4
}

// Frame is everything the host hands the froxel renderer for one frame. All
// fields are borrowed and never mutated.
type Frame struct {
	Camera *core.CameraState
	Shadow ShadowInput
	// Color is the scene's current colour output.
	Color Texture
	// SceneDepth is optional linear depth / far in an R32Float texture.
	SceneDepth Texture
}
