// Package texture converts between the evaluator's raw pixel layouts and
// Go images, and loads decal override images from disk.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/ftrvxmtrx/tga"
)

// TGA has no signature, so it is the fallback when neither magic matches.
var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// Load reads a PNG, JPEG or TGA file and returns an NRGBA image.
func Load(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes a PNG, JPEG or TGA image, chosen by its leading bytes.
func Decode(raw []byte) (*image.NRGBA, error) {
	r := bytes.NewReader(raw)
	var img image.Image
	var err error
	switch {
	case bytes.HasPrefix(raw, pngMagic):
		img, err = png.Decode(r)
	case bytes.HasPrefix(raw, jpegMagic):
		img, err = jpeg.Decode(r)
	default:
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format with its origin at (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// Opaque sources: a straight copy is exact.
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
