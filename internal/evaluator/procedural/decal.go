package procedural

import (
	"math"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/texture"
)

// canvas is a CPU-side decal image with 1, 2 or 4 channels per pixel, rows
// top-down.
type canvas struct {
	w, h   int
	format evaluator.TextureFormat
	pix    []byte
}

func newCanvas(w, h int, f evaluator.TextureFormat) *canvas {
	return &canvas{w: w, h: h, format: f, pix: make([]byte, w*h*texture.Channels(f))}
}

// paint evaluates fn at every pixel center in unit coordinates. fn returns
// channel values in [0,1].
func (c *canvas) paint(fn func(x, y float64) [4]float64) {
	n := texture.Channels(c.format)
	for j := range c.h {
		for i := range c.w {
			v := fn((float64(i)+0.5)/float64(c.w), (float64(j)+0.5)/float64(c.h))
			o := (j*c.w + i) * n
			for k := range n {
				c.pix[o+k] = uint8(math.Round(clamp01(v[k]) * 255))
			}
		}
	}
}

func (c *canvas) info() *evaluator.TextureInfo {
	return &evaluator.TextureInfo{Width: c.w, Height: c.h, Format: c.format, Pixels: c.pix}
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// edge is the antialiasing ramp width in unit coordinates.
const edge = 0.03

// ellipse returns the coverage of an axis aligned ellipse.
func ellipse(x, y, cx, cy, rx, ry float64) float64 {
	d := math.Hypot((x-cx)/rx, (y-cy)/ry)
	return clamp01((1 - d) * math.Min(rx, ry) / edge)
}

// stroke returns the coverage of a curve y = cy + bend·(1 - ((x-cx)/hw)²)
// drawn with half thickness t, tapering to nothing at |x-cx| = hw.
func stroke(x, y, cx, cy, hw, bend, t float64) float64 {
	s := (x - cx) / hw
	if math.Abs(s) >= 1 {
		return 0
	}
	curve := cy + bend*(1-s*s)
	taper := t * math.Sqrt(1-s*s*s*s)
	return clamp01((taper - math.Abs(y-curve)) / edge)
}

// eyeShape is the state of one eye decal.
type eyeShape int

const (
	eyeOpen eyeShape = iota
	eyeClosed
	eyeSmile
)

var eyeNames = [...]string{"eye_open", "eye_closed", "eye_smile"}

// mouthShape is the state of the mouth decal.
type mouthShape int

const (
	mouthClosed mouthShape = iota
	mouthSmile
	mouthOpen
	mouthFrown
)

var mouthNames = [...]string{"mouth_closed", "mouth_smile", "mouth_open", "mouth_frown"}

// Eye layers: r iris, g sclera, b outline and pupil.
func eyeDecal(shape eyeShape, eyeType int) *canvas {
	c := newCanvas(64, 64, evaluator.TextureFormatRGBA8)
	iris := 0.17 + float64(eyeType%6)*0.01
	c.paint(func(x, y float64) [4]float64 {
		switch shape {
		case eyeClosed:
			a := stroke(x, y, 0.5, 0.5, 0.42, 0.08, 0.06)
			return [4]float64{0, 0, 1, a}
		case eyeSmile:
			a := stroke(x, y, 0.5, 0.6, 0.42, -0.2, 0.07)
			return [4]float64{0, 0, 1, a}
		}
		sclera := ellipse(x, y, 0.5, 0.5, 0.42, 0.34)
		outline := math.Max(0, sclera-ellipse(x, y, 0.5, 0.5, 0.37, 0.29))
		pupil := ellipse(x, y, 0.5, 0.52, iris*0.45, iris*0.45)
		b := math.Max(outline, pupil)
		ir := ellipse(x, y, 0.5, 0.52, iris, iris) * sclera
		return [4]float64{ir * (1 - b), (1 - ir) * (1 - b), b, sclera}
	})
	return c
}

// Mouth layers: r lips, g teeth, b interior.
func mouthDecal(shape mouthShape, mouthType int) *canvas {
	c := newCanvas(128, 64, evaluator.TextureFormatRGBA8)
	lip := 0.08 + float64(mouthType%4)*0.015
	c.paint(func(x, y float64) [4]float64 {
		var bend float64
		switch shape {
		case mouthOpen:
			outer := ellipse(x, y, 0.5, 0.5, 0.4, 0.36)
			inner := ellipse(x, y, 0.5, 0.5, 0.32, 0.26)
			teeth := inner * clamp01((0.38-y)/edge)
			return [4]float64{outer * (1 - inner), teeth, inner * (1 - teeth), outer}
		case mouthSmile:
			bend = 0.22
		case mouthFrown:
			bend = -0.22
		}
		cy := 0.5 - bend/2
		lips := stroke(x, y, 0.5, cy, 0.42, bend, lip)
		line := stroke(x, y, 0.5, cy, 0.4, bend, 0.025)
		return [4]float64{lips * (1 - line), 0, line, lips}
	})
	return c
}

func eyebrowDecal(browType int) *canvas {
	c := newCanvas(64, 32, evaluator.TextureFormatR8)
	t := 0.12 + float64(browType%4)*0.04
	c.paint(func(x, y float64) [4]float64 {
		return [4]float64{stroke(x, y, 0.5, 0.6, 0.45, -0.25, t)}
	})
	return c
}

func mustacheDecal(kind int) *canvas {
	c := newCanvas(64, 32, evaluator.TextureFormatR8)
	droop := 0.1 * float64(kind%3)
	c.paint(func(x, y float64) [4]float64 {
		left := ellipse(x, y, 0.28, 0.45+droop, 0.24, 0.3)
		right := ellipse(x, y, 0.72, 0.45+droop, 0.24, 0.3)
		return [4]float64{math.Max(left, right)}
	})
	return c
}

func moleDecal() *canvas {
	c := newCanvas(16, 16, evaluator.TextureFormatR8)
	c.paint(func(x, y float64) [4]float64 {
		return [4]float64{ellipse(x, y, 0.5, 0.5, 0.45, 0.45)}
	})
	return c
}

// makeupDecal is a straight color blush with a soft alpha falloff.
func makeupDecal(kind int) *canvas {
	c := newCanvas(64, 64, evaluator.TextureFormatRGBA8)
	strength := 0.3 + 0.05*float64(kind%6)
	c.paint(func(x, y float64) [4]float64 {
		d := math.Hypot(x-0.5, y-0.5) / 0.5
		return [4]float64{1, 0.45, 0.45, strength * clamp01(1-d*d)}
	})
	return c
}

func wrinkleDecal(kind int) *canvas {
	c := newCanvas(64, 32, evaluator.TextureFormatR8)
	lines := 1 + kind%3
	c.paint(func(x, y float64) [4]float64 {
		var a float64
		for i := range lines {
			a = math.Max(a, stroke(x, y, 0.5, 0.3+0.2*float64(i), 0.4, 0.08, 0.025))
		}
		return [4]float64{a * 0.6}
	})
	return c
}

// beardDecal stipples the lower face. The dot pattern is a fixed hash so
// every bake of a model is identical.
func beardDecal(kind int) *canvas {
	c := newCanvas(64, 64, evaluator.TextureFormatR8)
	top := 0.55 - 0.05*float64(kind%4)
	c.paint(func(x, y float64) [4]float64 {
		region := ellipse(x, y, 0.5, 0.95, 0.5, 1-top) * clamp01((y-top)/edge)
		h := math.Sin(x*12.9898*64+y*78.233*64) * 43758.5453
		dot := 0.5
		if h-math.Floor(h) > 0.45 {
			dot = 1
		}
		return [4]float64{region * dot}
	})
	return c
}

func glassDecal(kind int) *canvas {
	c := newCanvas(128, 64, evaluator.TextureFormatR8)
	ry := 0.38 - 0.04*float64(kind%4)
	c.paint(func(x, y float64) [4]float64 {
		ring := func(cx float64) float64 {
			return math.Max(0, ellipse(x, y, cx, 0.5, 0.22, ry)-ellipse(x, y, cx, 0.5, 0.19, ry-0.06))
		}
		bridge := stroke(x, y, 0.5, 0.45, 0.06, 0, 0.04)
		return [4]float64{math.Max(math.Max(ring(0.25), ring(0.75)), bridge)}
	})
	return c
}
