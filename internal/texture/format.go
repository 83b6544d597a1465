package texture

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"mii-renderer/internal/evaluator"
)

// Channels returns the bytes per pixel of f, or 0 for an unknown format.
func Channels(f evaluator.TextureFormat) int {
	switch f {
	case evaluator.TextureFormatR8:
		return 1
	case evaluator.TextureFormatRG8:
		return 2
	case evaluator.TextureFormatRGBA8:
		return 4
	}
	return 0
}

// ToImage expands raw texture bytes to NRGBA. Missing channels read as 0
// except alpha, which reads as 255, so an R8 mask shows up red.
func ToImage(info *evaluator.TextureInfo) (*image.NRGBA, error) {
	n := Channels(info.Format)
	if n == 0 {
		return nil, fmt.Errorf("texture: unknown format %d", info.Format)
	}
	if want := info.Width * info.Height * n; info.Width <= 0 || info.Height <= 0 || len(info.Pixels) < want {
		return nil, fmt.Errorf("texture: %dx%d format %d needs %d bytes, got %d",
			info.Width, info.Height, info.Format, want, len(info.Pixels))
	}
	img := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
	for i := 0; i < info.Width*info.Height; i++ {
		src := info.Pixels[i*n : i*n+n]
		dst := img.Pix[i*4 : i*4+4]
		dst[3] = 255
		copy(dst, src)
	}
	return img, nil
}

// FromImage packs img into the raw layout f, keeping the leading channels.
func FromImage(img *image.NRGBA, f evaluator.TextureFormat) ([]byte, error) {
	n := Channels(f)
	if n == 0 {
		return nil, fmt.Errorf("texture: unknown format %d", f)
	}
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			out = append(out, img.Pix[i:i+n]...)
		}
	}
	return out, nil
}

// Resize scales img to w×h with Catmull-Rom filtering. Images already at
// the requested size are returned as is.
func Resize(img *image.NRGBA, w, h int) *image.NRGBA {
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
