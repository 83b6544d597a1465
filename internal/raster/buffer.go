package raster

import (
	"image"

	"github.com/gogpu/gputypes"
)

// FrameBuffer holds one render target as flat slices for cache locality.
// Row 0 is the bottom row, matching window coordinates.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // window depth per pixel in [0, 1], len = W*H
}

// NewFrameBuffer allocates a transparent color buffer and a far-plane depth buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		ZBuf:   make([]float64, w*h),
	}
	fb.clearDepth()
	return fb
}

// Clear fills color with c and resets depth to the far plane.
func (fb *FrameBuffer) Clear(c gputypes.Color) {
	px := [4]uint8{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
	for i := 0; i < len(fb.Color); i += 4 {
		copy(fb.Color[i:i+4], px[:])
	}
	fb.clearDepth()
}

func (fb *FrameBuffer) clearDepth() {
	for i := range fb.ZBuf {
		fb.ZBuf[i] = 1
	}
}

// Image copies the color buffer out. Rows stay bottom-up.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}

func unorm8(v float64) uint8 {
	return clamp255(v * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
