package gpu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
)

type FeatureConfig struct {
	Pass         FroxelPassConfig
	BlendProgram ProgramDescriptor
	// OutputFormat of the blended colour; the zero value is RGBA16Float.
	OutputFormat Format
}

// FeatureConfigFromSettings resolves program sources and copies grid, media
// and bias from s.
func FeatureConfigFromSettings(s volumetric.Settings) (FeatureConfig, error) {
	if err := s.Validate(); err != nil {
		return FeatureConfig{}, err
	}
	compute, err := s.ComputeSource()
	if err != nil {
		return FeatureConfig{}, err
	}
	blend, err := s.BlendSource()
	if err != nil {
		return FeatureConfig{}, err
	}
	return FeatureConfig{
		Pass: FroxelPassConfig{
			Grid:           s.Grid,
			Media:          s.Media,
			ShadowBias:     s.ShadowBias,
			ComputeProgram: ProgramDescriptor{Label: "Froxel Compute", Source: compute},
		},
		BlendProgram: ProgramDescriptor{Label: "Volumetric Blend", Source: blend},
	}, nil
}

// Feature runs the froxel volumetric effect for one view: light injection,
// light scattering and the final blend, submitted as one command list.
type Feature struct {
	device     Device
	registry   core.LightRegistry
	log        volumetric.Logger
	pass       *FroxelPass
	compositor *Compositor

	warnings volumetric.Once
	lastList *CommandList
}

func NewFeature(device Device, cfg FeatureConfig, registry core.LightRegistry, logger volumetric.Logger) (*Feature, error) {
	if device == nil {
		return nil, errors.New("volumetric feature: nil device")
	}
	logger = volumetric.OrNop(logger)
	pass, err := NewFroxelPass(device, cfg.Pass, logger)
	if err != nil {
		return nil, err
	}
	compositor := NewCompositor(device, cfg.BlendProgram, logger)
	compositor.SetOutputFormat(cfg.OutputFormat)
	return &Feature{
		device:     device,
		registry:   registry,
		log:        logger,
		pass:       pass,
		compositor: compositor,
	}, nil
}

// Record appends injection, scattering and blend to list. Either all three
// passes are recorded or none.
func (f *Feature) Record(list *CommandList, frame *Frame) (Texture, error) {
	mark := list.Len()
	if err := f.pass.Record(list, frame, f.registry); err != nil {
		list.truncate(mark)
		return nil, err
	}
	out, err := f.compositor.Record(list, frame, f.pass.ScatteringVolume())
	if err != nil {
		list.truncate(mark)
		return nil, err
	}
	return out, nil
}

// Execute records and submits the effect for frame and returns the blended
// colour. Without a shadow map the frame's colour is returned untouched along
// with ErrMissingShadowMap.
func (f *Feature) Execute(frame *Frame) (Texture, error) {
	if frame == nil {
		return nil, errors.New("volumetric feature: nil frame")
	}
	list := NewCommandList("Volumetric Lighting")
	out, err := f.Record(list, frame)
	if errors.Is(err, ErrMissingShadowMap) {
		f.warnings.Warnf(f.log, "shadow", "shadow map not available, skipping volumetric lighting")
		return frame.Color, fmt.Errorf("volumetric feature: %w", err)
	}
	if err != nil {
		return nil, err
	}
	if f.warnings.Clear("shadow") {
		f.log.Infof("shadow map available again, volumetric lighting resumed")
	}

	if err := list.Validate(); err != nil {
		return nil, err
	}
	if err := f.device.Submit(list); err != nil {
		return nil, fmt.Errorf("submit %s: %w", list.Label, err)
	}
	f.lastList = list
	return out, nil
}

func (f *Feature) Pass() *FroxelPass {
	return f.pass
}

func (f *Feature) Compositor() *Compositor {
	return f.compositor
}

// LastCommandList is the list submitted by the most recent successful Execute.
func (f *Feature) LastCommandList() *CommandList {
	return f.lastList
}

func (f *Feature) Release() {
	f.compositor.Release()
	f.pass.Release()
	f.lastList = nil
}
