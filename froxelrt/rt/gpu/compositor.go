package gpu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
)

// Compositor blends the scattering volume over the frame's colour target into
// a new colour target of the same size.
type Compositor struct {
	device Device
	desc   ProgramDescriptor
	log    volumetric.Logger

	program      Program
	compilations int

	outputFormat Format

	// targets ping-pong so the output never aliases the source colour.
	targets      [2]Texture
	next         int
	targetSize   [2]uint32
	targetFormat Format

	farDepth Texture
}

// NewCompositor writes RGBA16Float targets so in-scattered light above 1 is
// kept for later tonemapping; see SetOutputFormat.
func NewCompositor(device Device, blendProgram ProgramDescriptor, logger volumetric.Logger) *Compositor {
	return &Compositor{
		device:       device,
		desc:         blendProgram,
		log:          volumetric.OrNop(logger),
		outputFormat: FormatRGBA16Float,
	}
}

// SetOutputFormat selects the format of the blended colour targets. Targets
// are recreated on the next Record.
func (c *Compositor) SetOutputFormat(f Format) {
	c.outputFormat = f
}

func (c *Compositor) OutputFormat() Format {
	return c.outputFormat
}

func (c *Compositor) ensureProgram() error {
	if c.program != nil {
		return nil
	}
	if c.desc.Source == "" {
		return ErrMissingBlendProgram
	}
	desc := c.desc
	desc.Kind = ProgramBlit
	if desc.Label == "" {
		desc.Label = "Volumetric Blend"
	}
	desc.EntryPoints = []string{BlendVertexEntry, BlendFragmentEntry}

	prog, err := c.device.CreateProgram(desc)
	if err != nil {
		return fmt.Errorf("volumetric blend program: %w", err)
	}
	if prog == nil {
		return ErrMissingBlendProgram
	}
	c.program = prog
	c.compilations++
	c.log.Debugf("compiled %s", desc.Label)
	return nil
}

func (c *Compositor) ensureTargets(w, h uint32, format Format) error {
	if c.targets[0] != nil && c.targetSize == [2]uint32{w, h} && c.targetFormat == format {
		return nil
	}
	c.releaseTargets()
	for i := range c.targets {
		tex, err := c.device.CreateTexture(TextureDescriptor{
			Label:        fmt.Sprintf("Volumetric Color %d", i),
			Dimension:    TextureDimension2D,
			Extent:       [3]uint32{w, h, 1},
			Format:       format,
			RenderTarget: true,
		})
		if err != nil {
			c.releaseTargets()
			return fmt.Errorf("create volumetric colour target: %w", err)
		}
		c.targets[i] = tex
	}
	c.targetSize = [2]uint32{w, h}
	c.targetFormat = format
	c.next = 0
	c.log.Debugf("volumetric colour targets resized to %dx%d", w, h)
	return nil
}

func (c *Compositor) ensureFarDepth() error {
	if c.farDepth != nil {
		return nil
	}
	tex, err := c.device.CreateTexture(TextureDescriptor{
		Label:     "Far Depth",
		Dimension: TextureDimension2D,
		Extent:    [3]uint32{1, 1, 1},
		Format:    FormatR32Float,
	})
	if err != nil {
		return fmt.Errorf("create far depth: %w", err)
	}
	if err := c.device.WriteTexture(tex, core.MarshalFloats([]float32{1})); err != nil {
		tex.Release()
		return fmt.Errorf("write far depth: %w", err)
	}
	c.farDepth = tex
	return nil
}

// Record appends the blend pass and returns the texture it writes. On error
// nothing is appended.
func (c *Compositor) Record(list *CommandList, frame *Frame, volume Texture) (Texture, error) {
	if frame == nil || frame.Camera == nil {
		return nil, errors.New("compositor: frame has no camera")
	}
	if frame.Color == nil {
		return nil, errors.New("compositor: frame has no colour target")
	}
	if volume == nil {
		return nil, errors.New("compositor: no scattering volume")
	}
	if err := c.ensureProgram(); err != nil {
		return nil, err
	}

	color := frame.Color.Descriptor()
	if err := c.ensureTargets(color.Extent[0], color.Extent[1], c.outputFormat); err != nil {
		return nil, err
	}
	depth := frame.SceneDepth
	if depth == nil {
		if err := c.ensureFarDepth(); err != nil {
			return nil, err
		}
		depth = c.farDepth
	}

	target := c.targets[c.next]
	if target == frame.Color {
		c.next ^= 1
		target = c.targets[c.next]
	}
	c.next ^= 1

	u := &core.BlendUniforms{
		Resolution:  volume.Descriptor().Extent,
		NearOverFar: frame.Camera.NearOverFar(),
	}
	pass := list.AddBlitPass("Volumetric Blend", c.program, target)
	pass.Uniforms = u
	pass.Read(BindingSourceColor, frame.Color).
		Read(BindingLightScatteringVolume, volume).
		Read(BindingSceneDepth, depth)
	return target, nil
}

// Compilations counts blend program compilations over the compositor's lifetime.
func (c *Compositor) Compilations() int {
	return c.compilations
}

func (c *Compositor) releaseTargets() {
	for i, t := range c.targets {
		if t != nil {
			t.Release()
			c.targets[i] = nil
		}
	}
	c.targetSize = [2]uint32{}
}

func (c *Compositor) Release() {
	c.releaseTargets()
	if c.farDepth != nil {
		c.farDepth.Release()
		c.farDepth = nil
	}
	if c.program != nil {
		c.program.Release()
		c.program = nil
	}
}
