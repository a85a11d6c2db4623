package core

import (
	"errors"
	"fmt"
)

var ErrInvalidGrid = errors.New("invalid froxel grid")

var axisNames = [3]string{"x", "y", "z"}

// GridDescriptor fixes the froxel volume resolution and the compute thread-group
// sizes of the two froxel kernels.
type GridDescriptor struct {
	Resolution      [3]uint32 `json:"resolution"`
	InjectionGroup  [3]uint32 `json:"injection_thread_group"`
	ScatteringGroup [3]uint32 `json:"scattering_thread_group"`
}

func DefaultGrid() GridDescriptor {
	return GridDescriptor{
		Resolution:      [3]uint32{160, 90, 128},
		InjectionGroup:  [3]uint32{16, 2, 16},
		ScatteringGroup: [3]uint32{32, 2, 1},
	}
}

// Validate rejects zero sizes and any resolution axis that is not an exact
// multiple of a thread-group axis. Dispatch sizes use floor division, so a
// remainder would leave froxels unwritten.
func (g GridDescriptor) Validate() error {
	for i := 0; i < 3; i++ {
		if g.Resolution[i] == 0 {
			return fmt.Errorf("%w: resolution.%s is zero", ErrInvalidGrid, axisNames[i])
		}
		if g.InjectionGroup[i] == 0 {
			return fmt.Errorf("%w: injection group.%s is zero", ErrInvalidGrid, axisNames[i])
		}
		if g.ScatteringGroup[i] == 0 {
			return fmt.Errorf("%w: scattering group.%s is zero", ErrInvalidGrid, axisNames[i])
		}
		if g.Resolution[i]%g.InjectionGroup[i] != 0 {
			return fmt.Errorf("%w: resolution.%s=%d not divisible by injection group %d",
				ErrInvalidGrid, axisNames[i], g.Resolution[i], g.InjectionGroup[i])
		}
		if g.Resolution[i]%g.ScatteringGroup[i] != 0 {
			return fmt.Errorf("%w: resolution.%s=%d not divisible by scattering group %d",
				ErrInvalidGrid, axisNames[i], g.Resolution[i], g.ScatteringGroup[i])
		}
	}
	return nil
}

func dispatch(res, group [3]uint32) [3]uint32 {
	var out [3]uint32
	for i := 0; i < 3; i++ {
		if group[i] == 0 {
			continue
		}
		out[i] = res[i] / group[i]
	}
	return out
}

// InjectionDispatch is the workgroup count of the light injection kernel.
func (g GridDescriptor) InjectionDispatch() [3]uint32 {
	return dispatch(g.Resolution, g.InjectionGroup)
}

// ScatteringDispatch is the workgroup count of the light scattering kernel.
func (g GridDescriptor) ScatteringDispatch() [3]uint32 {
	return dispatch(g.Resolution, g.ScatteringGroup)
}

func (g GridDescriptor) CellCount() int {
	return int(g.Resolution[0]) * int(g.Resolution[1]) * int(g.Resolution[2])
}
