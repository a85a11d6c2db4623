package core

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/mrjoshuak/go-openexr/exr"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// SliceImage converts depth slice z into an HDR image. Row 0 of the image is
// the top row of the froxel grid.
func (v *Volume) SliceImage(z int) *exr.RGBAImage {
	w, h := v.Extent[0], v.Extent[1]
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := v.At(x, h-1-y, z)
			img.SetRGBA(x, y, c[0], c[1], c[2], c[3])
		}
	}
	return img
}

// WriteSliceEXR dumps slice z as a half-float OpenEXR file.
func (v *Volume) WriteSliceEXR(path string, z int) error {
	if z < 0 || z >= v.Extent[2] {
		return fmt.Errorf("slice %d out of range [0,%d)", z, v.Extent[2])
	}
	if err := exr.EncodeFile(path, v.SliceImage(z)); err != nil {
		return fmt.Errorf("write slice %d: %w", z, err)
	}
	return nil
}

// WriteSlicePreview writes an LDR TIFF of slice z upscaled by scale with
// nearest-neighbour filtering, alpha forced opaque.
func (v *Volume) WriteSlicePreview(path string, z, scale int) error {
	if z < 0 || z >= v.Extent[2] {
		return fmt.Errorf("slice %d out of range [0,%d)", z, v.Extent[2])
	}
	if scale < 1 {
		scale = 1
	}
	src := v.SliceImage(z)
	ldr := image.NewRGBA(src.Bounds())
	for y := 0; y < src.Rect.Dy(); y++ {
		for x := 0; x < src.Rect.Dx(); x++ {
			c := src.At(x, y).(color.RGBA)
			c.A = 255
			ldr.SetRGBA(x, y, c)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx()*scale, src.Rect.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), ldr, ldr.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return encodeTIFF(f, dst)
}

// encodeTIFF writes img to w and closes it; a failed close after a clean
// encode is reported since the file may be incomplete.
func encodeTIFF(w io.WriteCloser, img image.Image) error {
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		w.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close preview: %w", err)
	}
	return nil
}
