package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/gekko3d/volumetric/froxelrt/rt/gpu"
	"github.com/mrjoshuak/go-openexr/exr"
)

// OfflineOptions configures a single headless frame rendered on the CPU device.
type OfflineOptions struct {
	Width, Height int
	OutDir        string
	// Slices lists the depth slices dumped from the scattering volume. Empty
	// selects near, quarter, middle and far.
	Slices       []int
	PreviewScale int
}

// RenderOffline runs one frame of the volumetric feature on the software device
// and writes the composited image plus scattering slices to opts.OutDir.
func RenderOffline(settings volumetric.Settings, opts OfflineOptions, logger volumetric.Logger) error {
	logger = volumetric.OrNop(logger)
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 360
	}
	if opts.PreviewScale <= 0 {
		opts.PreviewScale = 4
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return err
	}

	device := gpu.NewSoftDevice(logger)
	lights := volumetric.NewSceneLights()
	if len(settings.Lights) > 0 {
		settings.PopulateScene(lights)
	} else {
		AddDefaultLights(lights)
	}

	cfg, err := gpu.FeatureConfigFromSettings(settings)
	if err != nil {
		return err
	}
	feature, err := gpu.NewFeature(device, cfg, lights, logger)
	if err != nil {
		return err
	}
	defer feature.Release()

	color, err := device.CreateTexture(gpu.TextureDescriptor{
		Label:     "Scene Color",
		Dimension: gpu.TextureDimension2D,
		Extent:    [3]uint32{uint32(opts.Width), uint32(opts.Height), 1},
		Format:    gpu.FormatRGBA8Unorm,
	})
	if err != nil {
		return err
	}
	defer color.Release()
	if err := device.WriteTexture(color, BackgroundPixels(opts.Width, opts.Height)); err != nil {
		return err
	}

	shadow, err := newUnshadowedMap(device)
	if err != nil {
		return err
	}
	defer shadow.Release()

	cam := core.NewCameraState()
	cam.Aspect = float32(opts.Width) / float32(opts.Height)

	out, err := feature.Execute(&gpu.Frame{
		Camera: cam,
		Shadow: gpu.ShadowInput{Texture: shadow},
		Color:  color,
	})
	if err != nil {
		return err
	}
	logger.Infof("offline frame: %d spot lights, passes %v", feature.Pass().Lights().Count(), device.Executed())

	composite := filepath.Join(opts.OutDir, "composite.exr")
	if err := exr.EncodeFile(composite, device.Image(out)); err != nil {
		return fmt.Errorf("write %s: %w", composite, err)
	}

	vol := device.Volume(feature.Pass().ScatteringVolume())
	slices := opts.Slices
	if len(slices) == 0 {
		z := vol.Extent[2]
		slices = []int{0, z / 4, z / 2, z - 1}
	}
	for _, z := range slices {
		base := filepath.Join(opts.OutDir, fmt.Sprintf("scattering_%03d", z))
		if err := vol.WriteSliceEXR(base+".exr", z); err != nil {
			return err
		}
		if err := vol.WriteSlicePreview(base+".tiff", z, opts.PreviewScale); err != nil {
			return err
		}
	}
	logger.Infof("wrote %s and %d scattering slices to %s", filepath.Base(composite), len(slices), opts.OutDir)
	return nil
}

// newUnshadowedMap is a 1x1 far-depth shadow atlas; with no matrices every
// light is lit.
func newUnshadowedMap(device gpu.Device) (gpu.Texture, error) {
	tex, err := device.CreateTexture(gpu.TextureDescriptor{
		Label:     "Shadow Atlas",
		Dimension: gpu.TextureDimension2D,
		Extent:    [3]uint32{1, 1, 1},
		Format:    gpu.FormatR32Float,
	})
	if err != nil {
		return nil, err
	}
	if err := device.WriteTexture(tex, core.MarshalFloats([]float32{1})); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}
