package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volumetric"
)

// WGPUDevice implements Device on a WebGPU device. Bind group layouts are
// explicit so R32Float depth inputs bind as unfilterable textures.
type WGPUDevice struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	log    volumetric.Logger

	// uniform buffers per pass name, reused across frames
	uniforms map[string]*wgpu.Buffer
}

func NewWGPUDevice(device *wgpu.Device, logger volumetric.Logger) *WGPUDevice {
	return &WGPUDevice{
		Device:   device,
		Queue:    device.GetQueue(),
		log:      volumetric.OrNop(logger),
		uniforms: make(map[string]*wgpu.Buffer),
	}
}

func wgpuFormat(f Format) wgpu.TextureFormat {
	switch f {
	case FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case FormatR32Float:
		return wgpu.TextureFormatR32Float
	case FormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

type wgpuTexture struct {
	desc     TextureDescriptor
	tex      *wgpu.Texture
	view     *wgpu.TextureView
	borrowed bool
}

func (t *wgpuTexture) Label() string                 { return t.desc.Label }
func (t *wgpuTexture) Descriptor() TextureDescriptor { return t.desc }

func (t *wgpuTexture) Release() {
	if t.borrowed {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type wgpuBuffer struct {
	label string
	buf   *wgpu.Buffer
	size  uint64
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type wgpuProgram struct {
	device  *WGPUDevice
	desc    ProgramDescriptor
	module  *wgpu.ShaderModule
	layouts map[string]*wgpu.BindGroupLayout
	compute map[string]*wgpu.ComputePipeline
	// blit pipelines are built per colour target format on first use
	render map[Format]*wgpu.RenderPipeline
}

func (p *wgpuProgram) Label() string                  { return p.desc.Label }
func (p *wgpuProgram) Kind() ProgramKind              { return p.desc.Kind }
func (p *wgpuProgram) HasEntryPoint(name string) bool { return hasEntry(p.desc.EntryPoints, name) }

func (p *wgpuProgram) WorkgroupSize(entry string) [3]uint32 {
	if s, ok := p.desc.Workgroups[entry]; ok {
		return s
	}
	return [3]uint32{1, 1, 1}
}

func (p *wgpuProgram) Release() {
	for k, pl := range p.compute {
		pl.Release()
		delete(p.compute, k)
	}
	for k, pl := range p.render {
		pl.Release()
		delete(p.render, k)
	}
	for k, l := range p.layouts {
		l.Release()
		delete(p.layouts, k)
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}

// WrapTexture adopts a texture owned by the host, such as the scene colour
// target. Releasing the wrapper leaves the underlying texture alive.
func (d *WGPUDevice) WrapTexture(desc TextureDescriptor, tex *wgpu.Texture, view *wgpu.TextureView) Texture {
	return &wgpuTexture{desc: desc, tex: tex, view: view, borrowed: true}
}

// View returns the default view of a texture created or wrapped by d.
func (d *WGPUDevice) View(tex Texture) *wgpu.TextureView {
	if t, ok := tex.(*wgpuTexture); ok {
		return t.view
	}
	return nil
}

func (d *WGPUDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc
	if desc.Storage {
		usage |= wgpu.TextureUsageStorageBinding
	}
	if desc.RenderTarget {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	dim := wgpu.TextureDimension2D
	if desc.Dimension == TextureDimension3D {
		dim = wgpu.TextureDimension3D
	}

	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: desc.Extent[0], Height: desc.Extent[1], DepthOrArrayLayers: desc.Extent[2]},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     dim,
		Format:        wgpuFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create view %q: %w", desc.Label, err)
	}
	return &wgpuTexture{desc: desc, tex: tex, view: view}, nil
}

func (d *WGPUDevice) CreateBuffer(label string, size uint64) (Buffer, error) {
	buf, err := d.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}
	return &wgpuBuffer{label: label, buf: buf, size: size}, nil
}

func (d *WGPUDevice) WriteBuffer(buf Buffer, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buf == nil {
		return fmt.Errorf("write buffer: %w", ErrReleased)
	}
	return d.Queue.WriteBuffer(b.buf, 0, data)
}

func (d *WGPUDevice) WriteTexture(tex Texture, data []byte) error {
	t, ok := tex.(*wgpuTexture)
	if !ok || t.tex == nil {
		return fmt.Errorf("write texture: %w", ErrReleased)
	}
	e := t.desc.Extent
	return d.Queue.WriteTexture(
		t.tex.AsImageCopy(),
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  e[0] * uint32(t.desc.Format.BytesPerTexel()),
			RowsPerImage: e[1],
		},
		&wgpu.Extent3D{Width: e[0], Height: e[1], DepthOrArrayLayers: e[2]},
	)
}

func (d *WGPUDevice) bindGroupLayout(label, entry string, stage wgpu.ShaderStage) (*wgpu.BindGroupLayout, error) {
	slots, ok := kernelBindings[entry]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKernel, entry)
	}
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(slots))
	for _, s := range slots {
		e := wgpu.BindGroupLayoutEntry{Binding: s.Slot, Visibility: stage}
		switch s.Kind {
		case bindUniform:
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case bindReadOnlyStorage:
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}
		case bindStorageVolume:
			e.StorageTexture = wgpu.StorageTextureBindingLayout{
				Access:        wgpu.StorageTextureAccessWriteOnly,
				Format:        wgpu.TextureFormatRGBA16Float,
				ViewDimension: wgpu.TextureViewDimension3D,
			}
		case bindTexture2D, bindDepthTexture2D:
			e.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case bindTexture3D:
			e.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension3D,
			}
		case bindColorAttachment:
			continue
		}
		entries = append(entries, e)
	}
	return d.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + " BGL (" + entry + ")",
		Entries: entries,
	})
}

func (d *WGPUDevice) CreateProgram(desc ProgramDescriptor) (Program, error) {
	module, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("shader module %q: %w", desc.Label, err)
	}
	p := &wgpuProgram{
		device:  d,
		desc:    desc,
		module:  module,
		layouts: make(map[string]*wgpu.BindGroupLayout),
		compute: make(map[string]*wgpu.ComputePipeline),
		render:  make(map[Format]*wgpu.RenderPipeline),
	}

	if desc.Kind == ProgramBlit {
		bgl, err := d.bindGroupLayout(desc.Label, BlendFragmentEntry, wgpu.ShaderStageFragment)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.layouts[BlendFragmentEntry] = bgl
		return p, nil
	}

	for _, entry := range desc.EntryPoints {
		bgl, err := d.bindGroupLayout(desc.Label, entry, wgpu.ShaderStageCompute)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.layouts[entry] = bgl

		layout, err := d.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
			BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
		})
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("pipeline layout %s: %w", entry, err)
		}
		pipeline, err := d.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:  desc.Label + " " + entry,
			Layout: layout,
			Compute: wgpu.ProgrammableStageDescriptor{
				Module:     module,
				EntryPoint: entry,
			},
		})
		layout.Release()
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("compute pipeline %s: %w", entry, err)
		}
		p.compute[entry] = pipeline
	}
	return p, nil
}

func (p *wgpuProgram) renderPipeline(format Format) (*wgpu.RenderPipeline, error) {
	if pl, ok := p.render[format]; ok {
		return pl, nil
	}
	d := p.device
	layout, err := d.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layouts[BlendFragmentEntry]},
	})
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	pl, err := d.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.desc.Label + " " + format.String(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: BlendVertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: BlendFragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    wgpuFormat(format),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	p.render[format] = pl
	return pl, nil
}

func (d *WGPUDevice) uniformBuffer(pass string, data []byte) (*wgpu.Buffer, error) {
	buf := d.uniforms[pass]
	if buf == nil || buf.GetSize() != uint64(len(data)) {
		if buf != nil {
			buf.Release()
		}
		var err error
		buf, err = d.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: pass + " Params",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		d.uniforms[pass] = buf
	}
	if err := d.Queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *WGPUDevice) bindGroup(p *Pass, prog *wgpuProgram, layoutEntry string) (*wgpu.BindGroup, error) {
	var entries []wgpu.BindGroupEntry
	for _, s := range kernelBindings[layoutEntry] {
		if s.Kind == bindColorAttachment {
			continue
		}
		if s.Kind == bindUniform {
			if p.Uniforms == nil {
				return nil, fmt.Errorf("pass %q: no uniforms", p.Name)
			}
			buf, err := d.uniformBuffer(p.Name, p.Uniforms.Marshal())
			if err != nil {
				return nil, fmt.Errorf("pass %q: uniforms: %w", p.Name, err)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: s.Slot, Buffer: buf, Size: wgpu.WholeSize})
			continue
		}
		switch r := p.Binding(s.Name).(type) {
		case *wgpuBuffer:
			entries = append(entries, wgpu.BindGroupEntry{Binding: s.Slot, Buffer: r.buf, Size: wgpu.WholeSize})
		case *wgpuTexture:
			entries = append(entries, wgpu.BindGroupEntry{Binding: s.Slot, TextureView: r.view})
		default:
			return nil, fmt.Errorf("pass %q: binding %s missing or foreign (%T)", p.Name, s.Name, r)
		}
	}
	return d.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.Name,
		Layout:  prog.layouts[layoutEntry],
		Entries: entries,
	})
}

// Submit encodes every pass of list into one command buffer.
func (d *WGPUDevice) Submit(list *CommandList) error {
	if err := list.Validate(); err != nil {
		return err
	}
	encoder, err := d.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	var groups []*wgpu.BindGroup
	defer func() {
		for _, bg := range groups {
			bg.Release()
		}
	}()

	passes := list.Passes()
	for i := range passes {
		p := &passes[i]
		prog, ok := p.Program.(*wgpuProgram)
		if !ok {
			return fmt.Errorf("pass %q: foreign program %T", p.Name, p.Program)
		}

		switch p.Kind {
		case PassCompute:
			pipeline := prog.compute[p.Entry]
			if pipeline == nil {
				return fmt.Errorf("pass %q: %w: %s", p.Name, ErrUnknownKernel, p.Entry)
			}
			bg, err := d.bindGroup(p, prog, p.Entry)
			if err != nil {
				return err
			}
			groups = append(groups, bg)

			cPass := encoder.BeginComputePass(nil)
			cPass.SetPipeline(pipeline)
			cPass.SetBindGroup(0, bg, nil)
			cPass.DispatchWorkgroups(p.Groups[0], p.Groups[1], p.Groups[2])
			if err := cPass.End(); err != nil {
				return fmt.Errorf("pass %q: %w", p.Name, err)
			}

		case PassBlit:
			target, ok := p.Target.(*wgpuTexture)
			if !ok || target.view == nil {
				return fmt.Errorf("pass %q: blit target unavailable", p.Name)
			}
			pipeline, err := prog.renderPipeline(target.desc.Format)
			if err != nil {
				return fmt.Errorf("pass %q: render pipeline: %w", p.Name, err)
			}
			bg, err := d.bindGroup(p, prog, BlendFragmentEntry)
			if err != nil {
				return err
			}
			groups = append(groups, bg)

			rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
				ColorAttachments: []wgpu.RenderPassColorAttachment{{
					View:       target.view,
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
				}},
			})
			rPass.SetPipeline(pipeline)
			rPass.SetBindGroup(0, bg, nil)
			rPass.Draw(3, 1, 0, 0)
			if err := rPass.End(); err != nil {
				return fmt.Errorf("pass %q: %w", p.Name, err)
			}
		}
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish %s: %w", list.Label, err)
	}
	d.Queue.Submit(cmd)
	return nil
}

// Release frees the per-pass uniform buffers. Resources handed out by the
// device are released by their owners.
func (d *WGPUDevice) Release() {
	for k, b := range d.uniforms {
		b.Release()
		delete(d.uniforms, k)
	}
}
