package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to w×h with CatmullRom filtering in premultiplied
// space so transparent edges do not pick up dark fringes. An image that
// already has the target size is returned as is.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}

	premul := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := premul.Pix[y*premul.Stride:]
		for i := 0; i < len(src); i += 4 {
			a := uint32(src[i+3])
			dst[i] = uint8((uint32(src[i])*a + 127) / 255)
			dst[i+1] = uint8((uint32(src[i+1])*a + 127) / 255)
			dst[i+2] = uint8((uint32(src[i+2])*a + 127) / 255)
			dst[i+3] = src[i+3]
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	for i := 0; i < len(scaled.Pix); i += 4 {
		a := scaled.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		inv := 255 / float64(a)
		out.Pix[i] = clamp8(float64(scaled.Pix[i]) * inv)
		out.Pix[i+1] = clamp8(float64(scaled.Pix[i+1]) * inv)
		out.Pix[i+2] = clamp8(float64(scaled.Pix[i+2]) * inv)
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
