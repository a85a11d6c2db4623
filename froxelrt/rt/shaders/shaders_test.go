package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSourcesDeclareEntryPoints(t *testing.T) {
	assert.Contains(t, FroxelWGSL, "fn light_injection(")
	assert.Contains(t, FroxelWGSL, "fn light_scattering(")
	assert.Contains(t, BlendVolumetricWGSL, "fn vs_main(")
	assert.Contains(t, BlendVolumetricWGSL, "fn fs_main(")
	assert.Contains(t, PresentWGSL, "fn fs_main(")
}

func TestExpandWorkgroups(t *testing.T) {
	out := ExpandWorkgroups(FroxelWGSL, [3]uint32{16, 2, 16}, [3]uint32{32, 2, 1})
	assert.NotContains(t, out, "${")
	assert.Contains(t, out, "@workgroup_size(16, 2, 16)")
	assert.Contains(t, out, "@workgroup_size(32, 2, 1)")
}

func TestExpandWorkgroupsWithoutPlaceholders(t *testing.T) {
	src := "@compute @workgroup_size(8, 8, 1)\nfn main() {}"
	assert.Equal(t, src, ExpandWorkgroups(src, [3]uint32{1, 1, 1}, [3]uint32{1, 1, 1}))
}

func TestValidateRejectsUnexpandedPlaceholder(t *testing.T) {
	err := Validate("froxel.wgsl", FroxelWGSL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unexpanded placeholder"), err.Error())
}

func TestValidateRejectsGarbage(t *testing.T) {
	err := Validate("garbage.wgsl", "this is not wgsl {")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garbage.wgsl")
}

func TestValidateBuiltin(t *testing.T) {
	require.NoError(t, ValidateBuiltin([3]uint32{16, 2, 16}, [3]uint32{32, 2, 1}))
	require.NoError(t, ValidateBuiltin([3]uint32{4, 2, 4}, [3]uint32{8, 2, 1}))
}

func TestFroxelKernelsAvoidVectorRelationals(t *testing.T) {
	// any()/all() lower to relational expressions the SPIR-V backend rejects
	assert.NotContains(t, FroxelWGSL, "any(")
	assert.NotContains(t, FroxelWGSL, "all(")
}

func TestScatteringWalksEachColumnOnce(t *testing.T) {
	assert.Contains(t, FroxelWGSL, "id.z != 0u")
	assert.Contains(t, FroxelWGSL, "for (var z = 0u; z < size.z; z = z + 1u)")
}
