package gpu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/gekko3d/volumetric/froxelrt/rt/shaders"
)

type FroxelPassConfig struct {
	Grid       core.GridDescriptor
	Media      core.Media
	ShadowBias float32
	// ComputeProgram holds both froxel kernels. Workgroup placeholders in its
	// source are expanded from Grid.
	ComputeProgram ProgramDescriptor
}

// FroxelPass owns the froxel volumes and records the light injection and light
// scattering dispatches each frame.
type FroxelPass struct {
	device Device
	cfg    FroxelPassConfig
	log    volumetric.Logger

	program          Program
	injectionVolume  Texture
	scatteringVolume Texture

	lights         *LightCollector
	shadowMatrices *DynamicBuffer

	uniforms core.FroxelUniforms
}

func NewFroxelPass(device Device, cfg FroxelPassConfig, logger volumetric.Logger) (*FroxelPass, error) {
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	if cfg.ComputeProgram.Source == "" {
		return nil, ErrMissingComputeProgram
	}

	desc := cfg.ComputeProgram
	desc.Kind = ProgramCompute
	if desc.Label == "" {
		desc.Label = "Froxel Compute"
	}
	desc.Source = shaders.ExpandWorkgroups(desc.Source, cfg.Grid.InjectionGroup, cfg.Grid.ScatteringGroup)
	desc.EntryPoints = []string{KernelLightInjection, KernelLightScattering}
	desc.Workgroups = map[string][3]uint32{
		KernelLightInjection:  cfg.Grid.InjectionGroup,
		KernelLightScattering: cfg.Grid.ScatteringGroup,
	}

	p := &FroxelPass{
		device:         device,
		cfg:            cfg,
		log:            volumetric.OrNop(logger),
		lights:         NewLightCollector(device, logger),
		shadowMatrices: NewDynamicBuffer(device, "Shadow Matrices", core.MatrixSize),
	}

	var err error
	p.program, err = device.CreateProgram(desc)
	if err != nil {
		return nil, fmt.Errorf("froxel compute program: %w", err)
	}
	if p.program == nil {
		return nil, ErrMissingComputeProgram
	}

	volume := TextureDescriptor{
		Dimension: TextureDimension3D,
		Extent:    cfg.Grid.Resolution,
		Format:    FormatRGBA16Float,
		Storage:   true,
	}
	volume.Label = "Light Injection Volume"
	if p.injectionVolume, err = device.CreateTexture(volume); err != nil {
		p.Release()
		return nil, fmt.Errorf("create injection volume: %w", err)
	}
	volume.Label = "Light Scattering Volume"
	if p.scatteringVolume, err = device.CreateTexture(volume); err != nil {
		p.Release()
		return nil, fmt.Errorf("create scattering volume: %w", err)
	}

	res := cfg.Grid.Resolution
	p.log.Infof("froxel grid %dx%dx%d, injection dispatch %v, scattering dispatch %v",
		res[0], res[1], res[2], cfg.Grid.InjectionDispatch(), cfg.Grid.ScatteringDispatch())
	return p, nil
}

// Record appends the injection and scattering passes for frame to list. On
// error nothing is appended.
func (p *FroxelPass) Record(list *CommandList, frame *Frame, registry core.LightRegistry) error {
	if p.program == nil {
		return ErrMissingComputeProgram
	}
	if frame == nil || frame.Camera == nil {
		return errors.New("froxel pass: frame has no camera")
	}
	if frame.Shadow.Texture == nil {
		return ErrMissingShadowMap
	}

	cam := frame.Camera
	rays := core.ComputeFrustumRays(cam)

	lights, err := p.lights.Collect(registry)
	if err != nil {
		return fmt.Errorf("collect spot lights: %w", err)
	}
	matrices := frame.Shadow.WorldToShadow
	if _, err := p.shadowMatrices.Sync(len(matrices), core.MarshalMatrices(matrices)); err != nil {
		return fmt.Errorf("upload shadow matrices: %w", err)
	}

	p.uniforms = core.FroxelUniforms{
		FrustumRays:       rays,
		CameraPosition:    cam.Position,
		CameraForward:     cam.GetForward(),
		Resolution:        p.cfg.Grid.Resolution,
		Near:              cam.Near,
		Far:               cam.Far,
		SpotLightCount:    uint32(len(lights)),
		ShadowMatrixCount: uint32(len(matrices)),
		Media:             p.cfg.Media,
		ShadowBias:        p.cfg.ShadowBias,
	}
	u := p.uniforms

	inject := list.AddComputePass("Light Injection", p.program, KernelLightInjection, p.cfg.Grid.InjectionDispatch())
	inject.Uniforms = &u
	inject.Write(BindingLightInjectionVolume, p.injectionVolume).
		Read(BindingSpotLights, p.lights.Buffer()).
		Read(BindingShadowMatrices, p.shadowMatrices.Buffer()).
		Read(BindingShadowTexture, frame.Shadow.Texture)

	scatter := list.AddComputePass("Light Scattering", p.program, KernelLightScattering, p.cfg.Grid.ScatteringDispatch())
	scatter.Uniforms = &u
	scatter.Read(BindingLightInjectionVolume, p.injectionVolume).
		Write(BindingLightScatteringVolume, p.scatteringVolume)

	return nil
}

func (p *FroxelPass) Grid() core.GridDescriptor {
	return p.cfg.Grid
}

// Uniforms returns the parameter block of the last recorded frame.
func (p *FroxelPass) Uniforms() core.FroxelUniforms {
	return p.uniforms
}

func (p *FroxelPass) InjectionVolume() Texture {
	return p.injectionVolume
}

func (p *FroxelPass) ScatteringVolume() Texture {
	return p.scatteringVolume
}

func (p *FroxelPass) Lights() *LightCollector {
	return p.lights
}

func (p *FroxelPass) Release() {
	if p.injectionVolume != nil {
		p.injectionVolume.Release()
		p.injectionVolume = nil
	}
	if p.scatteringVolume != nil {
		p.scatteringVolume.Release()
		p.scatteringVolume = nil
	}
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
	p.lights.Release()
	p.shadowMatrices.Release()
}
