package core

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestVolumeSetAt(t *testing.T) {
	v := NewVolume(4, 3, 2)
	require.Len(t, v.Texels, 4*3*2*4)

	v.Set(3, 2, 1, mgl32.Vec4{0.25, 1.5, -2, 0.75})
	assert.Equal(t, mgl32.Vec4{0.25, 1.5, -2, 0.75}, v.At(3, 2, 1))
	assert.Equal(t, mgl32.Vec4{}, v.At(0, 0, 0))

	// out of range reads are zero and writes are dropped
	v.Set(4, 0, 0, mgl32.Vec4{1, 1, 1, 1})
	assert.Equal(t, mgl32.Vec4{}, v.At(4, 0, 0))
	assert.Equal(t, mgl32.Vec4{}, v.At(-1, 0, 0))

	// half precision rounding
	v.Set(0, 0, 0, mgl32.Vec4{0.1, 0, 0, 0})
	assert.InDelta(t, 0.1, v.At(0, 0, 0).X(), 1e-4)

	v.Clear()
	assert.Equal(t, mgl32.Vec4{}, v.At(3, 2, 1))
}

func TestVolumeSlice(t *testing.T) {
	v := NewVolume(2, 2, 3)
	v.Set(1, 0, 2, mgl32.Vec4{1, 2, 3, 4})

	s := v.Slice(2)
	require.Len(t, s, 2*2*4)
	assert.Equal(t, []float32{1, 2, 3, 4}, s[4:8])
	assert.Equal(t, make([]float32, 16), v.Slice(5))
}

func TestSliceImageFlipsRows(t *testing.T) {
	v := NewVolume(2, 3, 1)
	v.Set(0, 0, 0, mgl32.Vec4{1, 0, 0, 1})
	v.Set(1, 2, 0, mgl32.Vec4{0, 1, 0, 1})

	img := v.SliceImage(0)
	r, _, _, _ := img.RGBA(0, 2)
	assert.Equal(t, float32(1), r)
	_, g, _, _ := img.RGBA(1, 0)
	assert.Equal(t, float32(1), g)
}

func TestWriteSliceFiles(t *testing.T) {
	v := NewVolume(4, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			v.Set(x, y, 1, mgl32.Vec4{float32(x) / 4, float32(y) / 2, 0.5, 1})
		}
	}
	dir := t.TempDir()

	exrPath := filepath.Join(dir, "slice.exr")
	require.NoError(t, v.WriteSliceEXR(exrPath, 1))
	info, err := os.Stat(exrPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	tiffPath := filepath.Join(dir, "slice.tiff")
	require.NoError(t, v.WriteSlicePreview(tiffPath, 1, 3))
	f, err := os.Open(tiffPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := tiff.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	assert.Error(t, v.WriteSliceEXR(exrPath, 2))
	assert.Error(t, v.WriteSlicePreview(tiffPath, -1, 1))
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return f.closeErr
}

func TestEncodeTIFFReportsCloseError(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	ok := &failingCloser{}
	require.NoError(t, encodeTIFF(ok, img))
	assert.True(t, ok.closed)
	assert.Greater(t, ok.Len(), 0)

	diskFull := errors.New("no space left on device")
	bad := &failingCloser{closeErr: diskFull}
	err := encodeTIFF(bad, img)
	assert.ErrorIs(t, err, diskFull)
	assert.True(t, bad.closed)
}
