package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"strings"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"
)

// SoftDevice executes command lists on the CPU with the reference kernels in
// core. It backs tests and the headless -dump-exr path of the demo.
type SoftDevice struct {
	log volumetric.Logger

	bufferAllocations  int
	textureAllocations int
	programsCreated    int
	live               int
	executed           []string
}

func NewSoftDevice(logger volumetric.Logger) *SoftDevice {
	return &SoftDevice{log: volumetric.OrNop(logger)}
}

type softResource struct {
	dev      *SoftDevice
	label    string
	released bool
}

func (r *softResource) Label() string { return r.label }

func (r *softResource) Release() {
	if r.released {
		return
	}
	r.released = true
	r.dev.live--
}

type softBuffer struct {
	softResource
	data []byte
}

func (b *softBuffer) Size() uint64 { return uint64(len(b.data)) }

type softTexture struct {
	softResource
	desc   TextureDescriptor
	volume *core.Volume
	image  *exr.RGBAImage
	depth  []float32
}

func (t *softTexture) Descriptor() TextureDescriptor { return t.desc }

type softProgram struct {
	softResource
	desc ProgramDescriptor
}

func (p *softProgram) Kind() ProgramKind { return p.desc.Kind }

func (p *softProgram) HasEntryPoint(name string) bool { return hasEntry(p.desc.EntryPoints, name) }

func (p *softProgram) WorkgroupSize(entry string) [3]uint32 {
	if s, ok := p.desc.Workgroups[entry]; ok {
		return s
	}
	return [3]uint32{1, 1, 1}
}

func (d *SoftDevice) resource(label string) softResource {
	d.live++
	return softResource{dev: d, label: label}
}

func (d *SoftDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	e := desc.Extent
	if e[0] == 0 || e[1] == 0 || e[2] == 0 {
		return nil, fmt.Errorf("texture %q: empty extent %v", desc.Label, e)
	}
	t := &softTexture{softResource: d.resource(desc.Label), desc: desc}
	switch {
	case desc.Dimension == TextureDimension3D:
		if desc.Format != FormatRGBA16Float {
			t.Release()
			return nil, fmt.Errorf("texture %q: 3D textures must be %s, got %s", desc.Label, FormatRGBA16Float, desc.Format)
		}
		t.volume = core.NewVolume(int(e[0]), int(e[1]), int(e[2]))
	case desc.Format == FormatR32Float:
		t.depth = make([]float32, e[0]*e[1])
	default:
		t.image = exr.NewRGBAImage(image.Rect(0, 0, int(e[0]), int(e[1])))
	}
	d.textureAllocations++
	return t, nil
}

func (d *SoftDevice) CreateBuffer(label string, size uint64) (Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("buffer %q: zero size", label)
	}
	d.bufferAllocations++
	return &softBuffer{softResource: d.resource(label), data: make([]byte, size)}, nil
}

func (d *SoftDevice) WriteBuffer(buf Buffer, data []byte) error {
	b, ok := buf.(*softBuffer)
	if !ok || b == nil {
		return fmt.Errorf("write buffer: foreign buffer %T", buf)
	}
	if b.released {
		return fmt.Errorf("write buffer %q: %w", b.label, ErrReleased)
	}
	if len(data) > len(b.data) {
		return fmt.Errorf("write buffer %q: %d bytes into %d", b.label, len(data), len(b.data))
	}
	copy(b.data, data)
	return nil
}

func (d *SoftDevice) WriteTexture(tex Texture, data []byte) error {
	t, ok := tex.(*softTexture)
	if !ok || t == nil {
		return fmt.Errorf("write texture: foreign texture %T", tex)
	}
	if t.released {
		return fmt.Errorf("write texture %q: %w", t.label, ErrReleased)
	}
	e := t.desc.Extent
	texels := int(e[0] * e[1] * e[2])
	if want := texels * t.desc.Format.BytesPerTexel(); len(data) != want {
		return fmt.Errorf("write texture %q: %d bytes, want %d", t.label, len(data), want)
	}

	switch {
	case t.volume != nil:
		for i := range t.volume.Texels {
			t.volume.Texels[i] = half.Half(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case t.depth != nil:
		copy(t.depth, core.UnmarshalFloats(data))
	default:
		pix := t.image.Pix
		switch t.desc.Format {
		case FormatRGBA16Float:
			for i := range pix {
				pix[i] = half.Half(binary.LittleEndian.Uint16(data[i*2:])).Float32()
			}
		case FormatBGRA8Unorm:
			for i := 0; i < len(pix); i += 4 {
				pix[i] = float32(data[i+2]) / 255
				pix[i+1] = float32(data[i+1]) / 255
				pix[i+2] = float32(data[i]) / 255
				pix[i+3] = float32(data[i+3]) / 255
			}
		default:
			for i := range pix {
				pix[i] = float32(data[i]) / 255
			}
		}
	}
	return nil
}

func (d *SoftDevice) CreateProgram(desc ProgramDescriptor) (Program, error) {
	if desc.Source == "" {
		return nil, fmt.Errorf("program %q: empty source", desc.Label)
	}
	if i := strings.Index(desc.Source, "${"); i >= 0 {
		end := strings.IndexByte(desc.Source[i:], '}')
		if end < 0 {
			end = len(desc.Source) - i - 1
		}
		return nil, fmt.Errorf("program %q: unexpanded placeholder %s", desc.Label, desc.Source[i:i+end+1])
	}
	for _, entry := range desc.EntryPoints {
		if !strings.Contains(desc.Source, "fn "+entry+"(") {
			return nil, fmt.Errorf("program %q: %w: %s", desc.Label, ErrUnknownKernel, entry)
		}
	}
	d.programsCreated++
	return &softProgram{softResource: d.resource(desc.Label), desc: desc}, nil
}

// Submit runs every pass of list in recording order.
func (d *SoftDevice) Submit(list *CommandList) error {
	if err := list.Validate(); err != nil {
		return err
	}
	passes := list.Passes()
	for i := range passes {
		p := &passes[i]
		for _, u := range p.Usages {
			if rr, ok := u.Resource.(interface{ isReleased() bool }); ok && rr.isReleased() {
				return fmt.Errorf("pass %q: binding %s: %w", p.Name, u.Binding, ErrReleased)
			}
		}
		var err error
		switch p.Entry {
		case KernelLightInjection:
			err = d.runInjection(p)
		case KernelLightScattering:
			err = d.runScattering(p)
		case BlendFragmentEntry:
			err = d.runBlend(p)
		default:
			err = fmt.Errorf("pass %q: %w: %s", p.Name, ErrUnknownKernel, p.Entry)
		}
		if err != nil {
			return err
		}
		d.executed = append(d.executed, p.Name)
	}
	d.log.Debugf("soft device executed %d passes of %s", len(passes), list.Label)
	return nil
}

func (r *softResource) isReleased() bool { return r.released }

func (d *SoftDevice) runInjection(p *Pass) error {
	u, ok := p.Uniforms.(*core.FroxelUniforms)
	if !ok {
		return fmt.Errorf("pass %q: want froxel uniforms, got %T", p.Name, p.Uniforms)
	}
	dst := volumeOf(p.Binding(BindingLightInjectionVolume))
	if dst == nil {
		return fmt.Errorf("pass %q: injection volume not bound", p.Name)
	}

	lights, err := core.UnmarshalSpotLights(bufferData(p.Binding(BindingSpotLights)), int(u.SpotLightCount))
	if err != nil {
		return fmt.Errorf("pass %q: %w", p.Name, err)
	}
	matrices, err := core.UnmarshalMatrices(bufferData(p.Binding(BindingShadowMatrices)), int(u.ShadowMatrixCount))
	if err != nil {
		return fmt.Errorf("pass %q: %w", p.Name, err)
	}
	shadow := &core.ShadowMap{WorldToShadow: matrices}
	if t, ok := p.Binding(BindingShadowTexture).(*softTexture); ok && t.depth != nil {
		shadow.Width = int(t.desc.Extent[0])
		shadow.Height = int(t.desc.Extent[1])
		shadow.Depth = t.depth
	}

	in := &core.InjectionInputs{Uniforms: *u, Lights: lights, Shadow: shadow}
	core.Inject(dst, in, p.Groups, p.Program.WorkgroupSize(p.Entry))
	return nil
}

func (d *SoftDevice) runScattering(p *Pass) error {
	u, ok := p.Uniforms.(*core.FroxelUniforms)
	if !ok {
		return fmt.Errorf("pass %q: want froxel uniforms, got %T", p.Name, p.Uniforms)
	}
	src := volumeOf(p.Binding(BindingLightInjectionVolume))
	dst := volumeOf(p.Binding(BindingLightScatteringVolume))
	if src == nil || dst == nil {
		return fmt.Errorf("pass %q: froxel volumes not bound", p.Name)
	}
	core.Scatter(dst, src, u, p.Groups, p.Program.WorkgroupSize(p.Entry))
	return nil
}

func (d *SoftDevice) runBlend(p *Pass) error {
	u, ok := p.Uniforms.(*core.BlendUniforms)
	if !ok {
		return fmt.Errorf("pass %q: want blend uniforms, got %T", p.Name, p.Uniforms)
	}
	src, _ := p.Binding(BindingSourceColor).(*softTexture)
	vol := volumeOf(p.Binding(BindingLightScatteringVolume))
	depth, _ := p.Binding(BindingSceneDepth).(*softTexture)
	dst, _ := p.Target.(*softTexture)
	if src == nil || src.image == nil || vol == nil || depth == nil || depth.depth == nil || dst == nil || dst.image == nil {
		return fmt.Errorf("pass %q: blend inputs not bound", p.Name)
	}

	w, h := dst.image.Rect.Dx(), dst.image.Rect.Dy()
	dw, dh := int(depth.desc.Extent[0]), int(depth.desc.Extent[1])
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.image.RGBA(x, y)
			dx := x * dw / w
			dy := y * dh / h
			c := core.CompositePixel(mgl32.Vec4{r, g, b, a}, depth.depth[dy*dw+dx], u.NearOverFar, vol, x, y, w, h)
			dst.image.SetRGBA(x, y, c[0], c[1], c[2], c[3])
		}
	}
	return nil
}

func volumeOf(r Resource) *core.Volume {
	if t, ok := r.(*softTexture); ok {
		return t.volume
	}
	return nil
}

func bufferData(r Resource) []byte {
	if b, ok := r.(*softBuffer); ok {
		return b.data
	}
	return nil
}

// Volume exposes the CPU storage of a 3D texture created by d.
func (d *SoftDevice) Volume(tex Texture) *core.Volume {
	return volumeOf(tex)
}

// Image exposes the CPU storage of a 2D colour texture created by d.
func (d *SoftDevice) Image(tex Texture) *exr.RGBAImage {
	if t, ok := tex.(*softTexture); ok {
		return t.image
	}
	return nil
}

func (d *SoftDevice) BufferData(buf Buffer) []byte {
	return bufferData(buf)
}

func (d *SoftDevice) BufferAllocations() int { return d.bufferAllocations }

func (d *SoftDevice) TextureAllocations() int { return d.textureAllocations }

func (d *SoftDevice) ProgramsCreated() int { return d.programsCreated }

// LiveResources counts created resources not yet released.
func (d *SoftDevice) LiveResources() int { return d.live }

// Executed lists the names of every pass run so far, in order.
func (d *SoftDevice) Executed() []string { return d.executed }
