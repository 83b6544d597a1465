package postprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// OpaqueBounds returns the smallest rectangle holding every pixel with
// non-zero alpha, or an empty rectangle for a fully transparent image.
func OpaqueBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4+3] == 0 {
				continue
			}
			minX = min(minX, b.Min.X+x)
			maxX = max(maxX, b.Min.X+x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Icon crops img to its opaque pixels and centers them on a transparent
// size×size canvas, scaled so the longer side spans fill of the canvas.
func Icon(img *image.NRGBA, size int, fill float64) *image.NRGBA {
	canvas := imaging.New(size, size, color.NRGBA{})
	r := OpaqueBounds(img)
	if r.Empty() {
		return canvas
	}
	subject := imaging.Crop(img, r)
	scale := float64(size) * fill / math.Max(float64(r.Dx()), float64(r.Dy()))
	w := max(1, int(float64(r.Dx())*scale+0.5))
	h := max(1, int(float64(r.Dy())*scale+0.5))
	subject = imaging.Resize(subject, w, h, imaging.CatmullRom)
	return imaging.PasteCenter(canvas, subject)
}

var neighbours = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// RemoveSpecks clears 8-connected opaque islands holding fewer than
// minRatio of all opaque pixels. Stray decal fragments otherwise stretch
// the icon crop.
func RemoveSpecks(img *image.NRGBA, minRatio float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	label := make([]int32, w*h)
	opaque := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[y*img.Stride+x*4+3] > 0 {
				label[y*w+x] = -1
				opaque++
			}
		}
	}
	if opaque == 0 {
		return img
	}

	var sizes []int
	queue := make([]int, 0, 256)
	for start := range label {
		if label[start] != -1 {
			continue
		}
		id := int32(len(sizes) + 1)
		label[start] = id
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			cx, cy := queue[head]%w, queue[head]/w
			for _, d := range neighbours {
				nx, ny := cx+d[0], cy+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if n := ny*w + nx; label[n] == -1 {
					label[n] = id
					queue = append(queue, n)
				}
			}
		}
		sizes = append(sizes, len(queue))
	}
	if len(sizes) < 2 {
		return img
	}

	keep := int(float64(opaque) * minRatio)
	out := imaging.Clone(img)
	for i, id := range label {
		if id > 0 && sizes[id-1] < keep {
			off := (i/w)*out.Stride + (i%w)*4
			clear(out.Pix[off : off+4])
		}
	}
	return out
}
