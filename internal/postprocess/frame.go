// Package postprocess turns read-back framebuffers into output images:
// row order fix-up, supersample reduction, icon framing and WebP encoding.
package postprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// Options control Frame.
type Options struct {
	// Width and Height are the output size. Zero keeps the input size.
	Width, Height int
	// BottomUp marks input rows as stored bottom row first.
	BottomUp bool
	// Icon, when positive, crops to the opaque pixels and centers them on
	// an Icon×Icon transparent canvas.
	Icon int
	// Fill is the fraction of the icon canvas the subject spans.
	Fill float64
	// MinSpeck drops opaque islands smaller than this fraction of all
	// opaque pixels before icon cropping.
	MinSpeck float64
}

// DefaultFill leaves a thin margin around icons.
const DefaultFill = 0.9

// Frame runs the output pipeline over a raw framebuffer read-back.
func Frame(raw *image.NRGBA, opts Options) *image.NRGBA {
	img := raw
	if opts.BottomUp {
		img = imaging.FlipV(img)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	img = Downsample(img, w, h)
	if opts.Icon > 0 {
		if opts.MinSpeck > 0 {
			img = RemoveSpecks(img, opts.MinSpeck)
		}
		fill := opts.Fill
		if fill <= 0 || fill > 1 {
			fill = DefaultFill
		}
		img = Icon(img, opts.Icon, fill)
	}
	return img
}
