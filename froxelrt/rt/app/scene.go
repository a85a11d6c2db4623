package app

import (
	"github.com/gekko3d/volumetric"
	"github.com/go-gl/mathgl/mgl32"
)

// AddDefaultLights places the demo spot lights in front of the default camera.
func AddDefaultLights(lights *volumetric.SceneLights) []volumetric.LightId {
	return []volumetric.LightId{
		lights.AddSpot(mgl32.Vec3{0, -20, 30}, mgl32.Vec3{0, 0, -1}, [3]float32{1.0, 0.85, 0.6}, 8, 45, 50, 30),
		lights.AddSpot(mgl32.Vec3{-14, -32, 26}, mgl32.Vec3{0.4, 0.1, -1}, [3]float32{0.5, 0.7, 1.0}, 6, 40, 40, 20),
		lights.AddSpot(mgl32.Vec3{16, -45, 24}, mgl32.Vec3{-0.3, 0.2, -1}, [3]float32{1.0, 0.4, 0.3}, 10, 50, 60, 45),
	}
}

// BackgroundPixels is an RGBA8 vertical gradient standing in for the scene
// colour target, row 0 at the top.
func BackgroundPixels(w, h int) []byte {
	top := mgl32.Vec3{0.05, 0.06, 0.10}
	bottom := mgl32.Vec3{0.18, 0.16, 0.14}
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		t := float32(y) / float32(max(h-1, 1))
		c := top.Mul(1 - t).Add(bottom.Mul(t))
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pix[i] = uint8(c[0] * 255)
			pix[i+1] = uint8(c[1] * 255)
			pix[i+2] = uint8(c[2] * 255)
			pix[i+3] = 255
		}
	}
	return pix
}
