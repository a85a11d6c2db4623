package gpu

import (
	"errors"
)

var (
	ErrMissingComputeProgram = errors.New("froxel compute program not configured")
	ErrMissingBlendProgram   = errors.New("volumetric blend program not configured")
	ErrMissingShadowMap      = errors.New("shadow map texture not available")
	ErrUnknownKernel         = errors.New("unknown kernel entry point")
	ErrReleased              = errors.New("resource already released")
)

type Format int

const (
	FormatRGBA16Float Format = iota
	FormatR32Float
	FormatRGBA8Unorm
	FormatBGRA8Unorm
)

// BytesPerTexel of f as uploaded through WriteTexture.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGBA16Float:
		return 8
	default:
		return 4
	}
}

func (f Format) String() string {
	switch f {
	case FormatRGBA16Float:
		return "rgba16float"
	case FormatR32Float:
		return "r32float"
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatBGRA8Unorm:
		return "bgra8unorm"
	}
	return "unknown"
}

type TextureDimension int

const (
	TextureDimension2D TextureDimension = iota
	TextureDimension3D
)

type TextureDescriptor struct {
	Label     string
	Dimension TextureDimension
	Extent    [3]uint32
	Format    Format
	// Storage enables random-access writes from compute kernels.
	Storage bool
	// RenderTarget allows the texture to be the output of a blit pass.
	RenderTarget bool
}

// Resource is anything a recorded pass can bind or declare usage of.
type Resource interface {
	Label() string
	Release()
}

type Texture interface {
	Resource
	Descriptor() TextureDescriptor
}

type Buffer interface {
	Resource
	Size() uint64
}

type ProgramKind int

const (
	ProgramCompute ProgramKind = iota
	ProgramBlit
)

// ProgramDescriptor references an external shader program by source.
type ProgramDescriptor struct {
	Label       string
	Kind        ProgramKind
	Source      string
	EntryPoints []string
	// Workgroups records the @workgroup_size of each compute entry point.
	Workgroups map[string][3]uint32
}

type Program interface {
	Resource
	Kind() ProgramKind
	HasEntryPoint(name string) bool
	WorkgroupSize(entry string) [3]uint32
}

// Device creates resources and executes recorded command lists in order.
type Device interface {
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateBuffer(label string, size uint64) (Buffer, error)
	WriteBuffer(buf Buffer, data []byte) error
	WriteTexture(tex Texture, data []byte) error
	CreateProgram(desc ProgramDescriptor) (Program, error)
	Submit(list *CommandList) error
}

func hasEntry(entries []string, name string) bool {
	for _, e := range entries {
		if e == name {
			return true
		}
	}
	return false
}
