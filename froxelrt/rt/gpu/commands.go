package gpu

import (
	"fmt"
)

type Access uint8

const (
	AccessRead Access = 1 << iota
	AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessRead | AccessWrite:
		return "read_write"
	}
	return "none"
}

// Usage declares how a pass touches a resource so the host can order work.
type Usage struct {
	Binding  string
	Resource Resource
	Access   Access
}

type PassKind int

const (
	PassCompute PassKind = iota
	PassBlit
)

// Uniforms is a CPU-side parameter block marshalled into the pass uniform buffer.
type Uniforms interface {
	Marshal() []byte
}

// Pass is one recorded dispatch or blit. Every bound resource is also listed
// in Usages.
type Pass struct {
	Name     string
	Kind     PassKind
	Program  Program
	Entry    string
	Uniforms Uniforms
	Usages   []Usage
	Groups   [3]uint32
	Target   Texture
}

// Read binds r under binding and declares it read.
func (p *Pass) Read(binding string, r Resource) *Pass {
	p.Usages = append(p.Usages, Usage{Binding: binding, Resource: r, Access: AccessRead})
	return p
}

// Write binds r under binding and declares it written.
func (p *Pass) Write(binding string, r Resource) *Pass {
	p.Usages = append(p.Usages, Usage{Binding: binding, Resource: r, Access: AccessWrite})
	return p
}

// Binding returns the resource bound under name, or nil.
func (p *Pass) Binding(name string) Resource {
	for _, u := range p.Usages {
		if u.Binding == name {
			return u.Resource
		}
	}
	return nil
}

func (p *Pass) validate() error {
	if p.Program == nil {
		return fmt.Errorf("pass %q: nil program", p.Name)
	}
	if !p.Program.HasEntryPoint(p.Entry) {
		return fmt.Errorf("pass %q: %w: %s", p.Name, ErrUnknownKernel, p.Entry)
	}
	for _, u := range p.Usages {
		if u.Resource == nil {
			return fmt.Errorf("pass %q: binding %s is nil", p.Name, u.Binding)
		}
	}
	switch p.Kind {
	case PassCompute:
		if p.Groups[0] == 0 || p.Groups[1] == 0 || p.Groups[2] == 0 {
			return fmt.Errorf("pass %q: empty dispatch %v", p.Name, p.Groups)
		}
	case PassBlit:
		if p.Target == nil {
			return fmt.Errorf("pass %q: blit without target", p.Name)
		}
	}
	return nil
}

// CommandList is an ordered recording of passes. Execution order is
// recording order.
type CommandList struct {
	Label  string
	passes []Pass
}

func NewCommandList(label string) *CommandList {
	return &CommandList{Label: label}
}

func (l *CommandList) AddComputePass(name string, program Program, entry string, groups [3]uint32) *Pass {
	l.passes = append(l.passes, Pass{
		Name:    name,
		Kind:    PassCompute,
		Program: program,
		Entry:   entry,
		Groups:  groups,
	})
	return &l.passes[len(l.passes)-1]
}

func (l *CommandList) AddBlitPass(name string, program Program, target Texture) *Pass {
	l.passes = append(l.passes, Pass{
		Name:    name,
		Kind:    PassBlit,
		Program: program,
		Entry:   BlendFragmentEntry,
		Target:  target,
	})
	p := &l.passes[len(l.passes)-1]
	p.Write(BindingBlendOutput, target)
	return p
}

func (l *CommandList) Passes() []Pass {
	return l.passes
}

func (l *CommandList) Len() int {
	return len(l.passes)
}

// truncate drops passes recorded after n; used to keep a failed recording atomic.
func (l *CommandList) truncate(n int) {
	if n < len(l.passes) {
		l.passes = l.passes[:n]
	}
}

// Validate checks every pass before submission.
func (l *CommandList) Validate() error {
	for i := range l.passes {
		if err := l.passes[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// PassUsage is one declared access of a resource by the pass at Index.
type PassUsage struct {
	Index  int
	Pass   string
	Access Access
}

// UsagesOf lists, in recording order, every declared access of r.
func (l *CommandList) UsagesOf(r Resource) []PassUsage {
	var out []PassUsage
	for i, p := range l.passes {
		for _, u := range p.Usages {
			if u.Resource == r {
				out = append(out, PassUsage{Index: i, Pass: p.Name, Access: u.Access})
			}
		}
	}
	return out
}
