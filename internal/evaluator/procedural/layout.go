package procedural

import (
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// pose is the decal state one expression selects.
type pose struct {
	left, right eyeShape
	mouth       mouthShape
	// browTilt rotates both eyebrows inward, in degrees.
	browTilt float64
	// browLift raises the eyebrows in decal units.
	browLift float64
}

var poses = [evaluator.ExpressionLimit]pose{
	evaluator.ExpressionNormal:             {eyeOpen, eyeOpen, mouthClosed, 0, 0},
	evaluator.ExpressionSmile:              {eyeSmile, eyeSmile, mouthSmile, 0, 0},
	evaluator.ExpressionAnger:              {eyeOpen, eyeOpen, mouthFrown, 15, 0},
	evaluator.ExpressionSorrow:             {eyeOpen, eyeOpen, mouthFrown, -15, 0},
	evaluator.ExpressionSurprise:           {eyeOpen, eyeOpen, mouthOpen, 0, 0.04},
	evaluator.ExpressionBlink:              {eyeClosed, eyeClosed, mouthClosed, 0, 0},
	evaluator.ExpressionOpenMouth:          {eyeOpen, eyeOpen, mouthOpen, 0, 0},
	evaluator.ExpressionHappy:              {eyeSmile, eyeSmile, mouthOpen, 0, 0},
	evaluator.ExpressionAngerOpenMouth:     {eyeOpen, eyeOpen, mouthOpen, 15, 0},
	evaluator.ExpressionSorrowOpenMouth:    {eyeOpen, eyeOpen, mouthOpen, -15, 0},
	evaluator.ExpressionSurpriseOpenMouth:  {eyeOpen, eyeOpen, mouthOpen, 0, 0.04},
	evaluator.ExpressionBlinkOpenMouth:     {eyeClosed, eyeClosed, mouthOpen, 0, 0},
	evaluator.ExpressionWinkLeft:           {eyeClosed, eyeOpen, mouthSmile, 0, 0},
	evaluator.ExpressionWinkRight:          {eyeOpen, eyeClosed, mouthSmile, 0, 0},
	evaluator.ExpressionWinkLeftOpenMouth:  {eyeClosed, eyeOpen, mouthOpen, 0, 0},
	evaluator.ExpressionWinkRightOpenMouth: {eyeOpen, eyeClosed, mouthOpen, 0, 0},
	evaluator.ExpressionLikeWinkLeft:       {eyeSmile, eyeOpen, mouthSmile, 0, 0},
	evaluator.ExpressionLikeWinkRight:      {eyeOpen, eyeSmile, mouthSmile, 0, 0},
	evaluator.ExpressionFrustrated:         {eyeClosed, eyeClosed, mouthFrown, -15, 0},
}

// placement is one decal quad in bake space.
type placement struct {
	center [2]float64
	size   [2]float64
	angle  float64 // radians
	mirror bool
}

// layout derives decal placements from descriptor sliders. All values are
// in unit decal coordinates with v running downward.
type layout struct{ d *Descriptor }

func (l layout) eyeV() float64 { return 0.32 + float64(l.d.EyeY)*0.01 }

// eyes returns the character's left eye first. The left eye sits on the
// viewer's right.
func (l layout) eyes() [2]placement {
	w := 0.16 + float64(l.d.EyeScale)*0.012
	h := w * (0.7 + float64(l.d.EyeAspect)*0.08)
	dx := 0.12 + float64(l.d.EyeSpacing)*0.012
	rot := mathutil.Deg2Rad(float64(l.d.EyeRotate-4) * 5)
	v := l.eyeV()
	return [2]placement{
		{center: [2]float64{0.5 + dx, v}, size: [2]float64{w, h}, angle: -rot},
		{center: [2]float64{0.5 - dx, v}, size: [2]float64{w, h}, angle: rot, mirror: true},
	}
}

func (l layout) eyebrows(p pose) [2]placement {
	w := 0.18 + float64(l.d.EyebrowScale)*0.01
	h := w * (0.35 + float64(l.d.EyebrowAspect)*0.04)
	dx := 0.12 + float64(l.d.EyebrowSpacing)*0.012
	v := l.eyeV() - 0.08 - float64(l.d.EyebrowY)*0.006 - p.browLift
	rot := mathutil.Deg2Rad(float64(l.d.EyebrowRotate-6)*4 + p.browTilt)
	return [2]placement{
		{center: [2]float64{0.5 + dx, v}, size: [2]float64{w, h}, angle: -rot},
		{center: [2]float64{0.5 - dx, v}, size: [2]float64{w, h}, angle: rot, mirror: true},
	}
}

func (l layout) mouth() placement {
	w := 0.3 + float64(l.d.MouthScale)*0.02
	h := w * (0.4 + float64(l.d.MouthAspect)*0.05)
	return placement{center: [2]float64{0.5, 0.62 + float64(l.d.MouthY)*0.012}, size: [2]float64{w, h}}
}

func (l layout) mustache() placement {
	w := 0.3 + float64(l.d.MustacheScale)*0.02
	v := l.mouth().center[1] - 0.07 - float64(l.d.MustacheY)*0.002
	return placement{center: [2]float64{0.5, v}, size: [2]float64{w, w / 2}}
}

func (l layout) mole() placement {
	s := 0.04 + float64(l.d.MoleScale)*0.005
	return placement{center: [2]float64{0.1 + float64(l.d.MoleX)*0.027, 0.1 + float64(l.d.MoleY)*0.027}, size: [2]float64{s, s}}
}

// Faceline decals use the faceline texture's own unit space.
var (
	cheeks = [2]placement{
		{center: [2]float64{0.72, 0.6}, size: [2]float64{0.22, 0.16}},
		{center: [2]float64{0.28, 0.6}, size: [2]float64{0.22, 0.16}, mirror: true},
	}
	wrinkles = [2]placement{
		{center: [2]float64{0.67, 0.5}, size: [2]float64{0.2, 0.06}},
		{center: [2]float64{0.33, 0.5}, size: [2]float64{0.2, 0.06}, mirror: true},
	}
	beardArea = placement{center: [2]float64{0.5, 0.85}, size: [2]float64{0.9, 0.35}}
)

// bakeMatrix maps unit decal space onto the bake target. With flipY the
// top of the decal lands on the target's first row.
func bakeMatrix(flipY bool) mathutil.Mat4 {
	if flipY {
		return mathutil.Mat4Ortho(0, 1, 0, 1, -1, 1)
	}
	return mathutil.Mat4Ortho(0, 1, 1, 0, -1, 1)
}
