package shaders

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed froxel.wgsl
var FroxelWGSL string

//go:embed blend_volumetric.wgsl
var BlendVolumetricWGSL string

//go:embed present.wgsl
var PresentWGSL string

// ExpandWorkgroups substitutes the ${INJECTION_GROUP_*} and
// ${SCATTERING_GROUP_*} placeholders of a froxel kernel source.
func ExpandWorkgroups(source string, injection, scattering [3]uint32) string {
	if !strings.Contains(source, "${") {
		return source
	}
	pairs := make([]string, 0, 12*2)
	for i, axis := range []string{"X", "Y", "Z"} {
		pairs = append(pairs,
			"${INJECTION_GROUP_"+axis+"}", strconv.FormatUint(uint64(injection[i]), 10),
			"${SCATTERING_GROUP_"+axis+"}", strconv.FormatUint(uint64(scattering[i]), 10),
		)
	}
	return strings.NewReplacer(pairs...).Replace(source)
}

// Validate compiles source with naga and reports the first front-end or
// lowering error. Placeholders must already be expanded.
func Validate(name, source string) error {
	if i := strings.Index(source, "${"); i >= 0 {
		line := strings.Count(source[:i], "\n") + 1
		return fmt.Errorf("%s: line %d: unexpanded placeholder", name, line)
	}
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ValidateBuiltin checks every embedded program, expanding the froxel kernels
// with the given workgroup sizes.
func ValidateBuiltin(injection, scattering [3]uint32) error {
	sources := []struct {
		name, src string
	}{
		{"froxel.wgsl", ExpandWorkgroups(FroxelWGSL, injection, scattering)},
		{"blend_volumetric.wgsl", BlendVolumetricWGSL},
		{"present.wgsl", PresentWGSL},
	}
	for _, s := range sources {
		if err := Validate(s.name, s.src); err != nil {
			return err
		}
	}
	return nil
}
