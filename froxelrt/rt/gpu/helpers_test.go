package gpu

import (
	"testing"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/gekko3d/volumetric/froxelrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

type handleList []core.LightHandle

func (h handleList) EnumerateActivePointLights() []core.LightHandle { return h }

func smallGrid() core.GridDescriptor {
	return core.GridDescriptor{
		Resolution:      [3]uint32{16, 8, 8},
		InjectionGroup:  [3]uint32{4, 2, 4},
		ScatteringGroup: [3]uint32{8, 2, 1},
	}
}

func testPassConfig() FroxelPassConfig {
	return FroxelPassConfig{
		Grid:           smallGrid(),
		Media:          core.DefaultMedia(),
		ShadowBias:     0.002,
		ComputeProgram: ProgramDescriptor{Label: "Froxel Compute", Source: shaders.FroxelWGSL},
	}
}

func testFeatureConfig() FeatureConfig {
	return FeatureConfig{
		Pass:         testPassConfig(),
		BlendProgram: ProgramDescriptor{Label: "Volumetric Blend", Source: shaders.BlendVolumetricWGSL},
	}
}

func testCamera() *core.CameraState {
	cam := core.NewCameraState()
	cam.Far = 100
	cam.Aspect = 2
	return cam
}

// sceneWithSpot puts one bright spot light 20 units ahead of testCamera,
// pointing down through the middle of the view.
func sceneWithSpot() *volumetric.SceneLights {
	lights := volumetric.NewSceneLights()
	cam := testCamera()
	ahead := cam.Position.Add(cam.GetForward().Mul(20))
	lights.AddSpot(ahead.Add(mgl32.Vec3{0, 0, 5}), mgl32.Vec3{0, 0, -1}, [3]float32{1, 1, 1}, 500, 40, 60, 40)
	return lights
}

func newColor(t *testing.T, dev *SoftDevice, w, h int, value byte) Texture {
	t.Helper()
	tex, err := dev.CreateTexture(TextureDescriptor{
		Label:     "Scene Color",
		Dimension: TextureDimension2D,
		Extent:    [3]uint32{uint32(w), uint32(h), 1},
		Format:    FormatRGBA8Unorm,
	})
	require.NoError(t, err)
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = value
		if i%4 == 3 {
			pix[i] = 255
		}
	}
	require.NoError(t, dev.WriteTexture(tex, pix))
	return tex
}

func newShadow(t *testing.T, dev *SoftDevice) Texture {
	t.Helper()
	tex, err := dev.CreateTexture(TextureDescriptor{
		Label:     "Shadow Atlas",
		Dimension: TextureDimension2D,
		Extent:    [3]uint32{1, 1, 1},
		Format:    FormatR32Float,
	})
	require.NoError(t, err)
	require.NoError(t, dev.WriteTexture(tex, core.MarshalFloats([]float32{1})))
	return tex
}

func testFrame(t *testing.T, dev *SoftDevice) *Frame {
	return &Frame{
		Camera: testCamera(),
		Shadow: ShadowInput{Texture: newShadow(t, dev)},
		Color:  newColor(t, dev, 32, 16, 51),
	}
}
