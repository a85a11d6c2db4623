package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOffline(t *testing.T) {
	settings := volumetric.DefaultSettings()
	settings.Grid = core.GridDescriptor{
		Resolution:      [3]uint32{16, 8, 8},
		InjectionGroup:  [3]uint32{8, 2, 4},
		ScatteringGroup: [3]uint32{8, 2, 1},
	}
	dir := t.TempDir()

	err := RenderOffline(settings, OfflineOptions{Width: 32, Height: 18, OutDir: dir, Slices: []int{0, 7}, PreviewScale: 2}, nil)
	require.NoError(t, err)

	for _, name := range []string{"composite.exr", "scattering_000.exr", "scattering_000.tiff", "scattering_007.exr", "scattering_007.tiff"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestRenderOfflineInvalidGrid(t *testing.T) {
	settings := volumetric.DefaultSettings()
	settings.Grid.Resolution[1] = 91
	err := RenderOffline(settings, OfflineOptions{Width: 8, Height: 8, OutDir: t.TempDir()}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidGrid)
}

func TestBackgroundPixels(t *testing.T) {
	pix := BackgroundPixels(4, 3)
	require.Len(t, pix, 4*3*4)
	for i := 3; i < len(pix); i += 4 {
		assert.Equal(t, uint8(255), pix[i])
	}
	// rows get brighter towards the bottom
	assert.Less(t, pix[0], pix[2*4*4])
}

func TestAddDefaultLights(t *testing.T) {
	lights := volumetric.NewSceneLights()
	ids := AddDefaultLights(lights)
	assert.Len(t, ids, 3)
	assert.Len(t, lights.EnumerateActivePointLights(), 3)
}
