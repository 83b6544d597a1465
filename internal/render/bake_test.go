package render

import (
	"testing"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/shader"
)

func TestBakeCreatesOneTargetPerExpression(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 64, evaluator.ExpressionNormal, evaluator.ExpressionBlink, evaluator.ExpressionSurprise)
	if err := rc.Bake(m); err != nil {
		t.Fatalf("Bake: %v", err)
	}

	if got := rec.LiveTargets(); got != 4 {
		t.Errorf("live targets = %d, want 4", got)
	}
	fl, ok := rc.FacelineTarget()
	if !ok || fl.Width != 32 || fl.Height != 64 {
		t.Errorf("faceline target = %+v, %v; want 32x64", fl, ok)
	}
	for _, e := range m.exprs.All() {
		rt := rc.MaskTarget(e)
		if rt.Width != 64 || rt.Height != 64 {
			t.Errorf("%v mask = %dx%d, want 64x64", e, rt.Width, rt.Height)
		}
	}
	want := []evaluator.Expression{evaluator.ExpressionNormal, evaluator.ExpressionSurprise, evaluator.ExpressionBlink}
	for i, e := range want {
		if i >= len(m.masks) || m.masks[i] != e {
			t.Fatalf("masks drawn %v, want ascending %v", m.masks, want)
		}
	}
}

func TestMaskTargetForUnrequestedExpressionPanics(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	if err := rc.Bake(newFakeModel(t, 16, evaluator.ExpressionNormal)); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("MaskTarget(anger) did not panic")
		}
	}()
	rc.MaskTarget(evaluator.ExpressionAnger)
}

func TestBakePassState(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 32, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	rec.SetViewport(gpu.Rect{Width: 320, Height: 240})
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}

	if len(rec.Draws) != 3 {
		t.Fatalf("draws = %d, want faceline + 2 masks", len(rec.Draws))
	}
	fl, _ := rc.FacelineTarget()
	face := rec.Draws[0]
	if face.Framebuffer != fl.Framebuffer || face.Blend == nil || *face.Blend != FacelineBlend {
		t.Errorf("faceline draw fb %d blend %+v", face.Framebuffer, face.Blend)
	}
	if got, want := rec.ClearColor(fl.Framebuffer), (gputypes.Color{R: 1, G: 0.8, B: 0.6, A: 1}); got != want {
		t.Errorf("faceline clear = %+v, want %+v", got, want)
	}
	for i, e := range m.exprs.All() {
		d := rec.Draws[1+i]
		rt := rc.MaskTarget(e)
		if d.Framebuffer != rt.Framebuffer || *d.Blend != MaskBlend {
			t.Errorf("%v mask draw fb %d blend %+v", e, d.Framebuffer, d.Blend)
		}
		if d.Cull != gputypes.CullModeNone {
			t.Errorf("%v mask cull = %v, want none", e, d.Cull)
		}
		if got := rec.ClearColor(rt.Framebuffer); got != (gputypes.Color{}) {
			t.Errorf("%v mask clear = %+v, want transparent", e, got)
		}
	}

	if v, _ := rec.Uniform(rc.Binder().Program(), "u_light_enable"); v != int32(0) {
		t.Errorf("bake lighting = %v, want 0", v)
	}
	if v, _ := rec.Uniform(rc.Binder().Program(), "u_model"); v != mathutil.Mat4Identity() {
		t.Errorf("bake model matrix = %v, want identity", v)
	}
	if rec.Framebuffer() != 0 {
		t.Errorf("framebuffer after bake = %d, want 0", rec.Framebuffer())
	}
	if got := rec.Viewport(); got != (gpu.Rect{Width: 320, Height: 240}) {
		t.Errorf("viewport after bake = %+v", got)
	}
	if b := rec.Blend(); b == nil || *b != DefaultBlend {
		t.Errorf("blend after bake = %+v, want default", b)
	}
	if !m.scratch {
		t.Error("texture scratch not released")
	}
	if last := m.calls[len(m.calls)-1]; last != "scratch" {
		t.Errorf("last model call = %q, want scratch release after all passes", last)
	}
}

func TestBakeSkipsFacelineWhenNotNeeded(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal)
	m.faceline = false
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	if _, ok := rc.FacelineTarget(); ok {
		t.Error("faceline target created")
	}
	if got := rec.LiveTargets(); got != 1 {
		t.Errorf("live targets = %d, want 1", got)
	}
}

func TestRebakeReleasesBeforeCreate(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	first := rc.MaskTarget(evaluator.ExpressionBlink)
	rec.Reset()

	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	if got := rec.LiveTargets(); got != 3 {
		t.Errorf("live targets after re-bake = %d, want 3", got)
	}
	if got := rec.Count("DeleteRenderTarget"); got != 3 {
		t.Errorf("targets released = %d, want 3", got)
	}
	ops := rec.Ops()
	pending := 0
	for _, op := range ops {
		switch op {
		case "DeleteRenderTarget":
			pending++
		case "CreateRenderTarget":
			if pending == 0 {
				t.Fatalf("target created before its predecessor was released: %v", ops)
			}
			pending--
		}
	}
	if _, ok := rec.Target(first.Framebuffer); ok {
		t.Error("first blink target still alive")
	}
}

func TestBakeNewModelDropsStaleMasks(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	if err := rc.Bake(newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionAnger)); err != nil {
		t.Fatal(err)
	}
	if err := rc.Bake(newFakeModel(t, 16, evaluator.ExpressionNormal)); err != nil {
		t.Fatal(err)
	}
	if got := rec.LiveTargets(); got != 2 {
		t.Errorf("live targets = %d, want 2", got)
	}
}

func TestBakeSelectsActiveMask(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	m.expr = evaluator.ExpressionBlink
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	cur, ok := rc.CurrentMask()
	if !ok || cur != rc.MaskTarget(evaluator.ExpressionBlink) {
		t.Errorf("current mask = %+v, want blink target", cur)
	}
}

func TestBakeActiveExpressionNotRequested(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionBlink, evaluator.ExpressionSmile)
	m.expr = evaluator.ExpressionNormal
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	if m.expr != evaluator.ExpressionSmile {
		t.Errorf("model expression = %v, want smile", m.expr)
	}
	if cur, ok := rc.CurrentMask(); !ok || cur != rc.MaskTarget(evaluator.ExpressionSmile) {
		t.Errorf("current mask = %+v, want smile target", cur)
	}
}

func TestBakeRejectsEmptyExpressionSet(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16)
	if err := rc.Bake(m); err == nil {
		t.Fatal("Bake with no expressions succeeded")
	}
	if rec.LiveTargets() != 0 {
		t.Error("targets created for a rejected model")
	}
}

func TestShadedDrawSamplesBakedTargets(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal)
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	id := mathutil.Mat4Identity()
	rc.BeginScene(id, id, id)
	rc.DrawModel()

	fl, _ := rc.FacelineTarget()
	mask := rc.MaskTarget(evaluator.ExpressionNormal)
	if len(rec.Draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(rec.Draws))
	}
	if got := rec.Draws[0].Texture; got != fl.Texture {
		t.Errorf("faceline shape texture = %d, want %d", got, fl.Texture)
	}
	if got := rec.Draws[1].Texture; got != mask.Texture {
		t.Errorf("mask shape texture = %d, want %d", got, mask.Texture)
	}
	if v, _ := rec.Uniform(rc.Binder().Program(), "u_light_enable"); v != int32(1) {
		t.Errorf("scene lighting = %v, want 1", v)
	}
}

func TestBakeRendersFacelineColor(t *testing.T) {
	b := raster.New(8, 8, quietLogger())
	rc, err := New(b, Options{Style: shader.StyleLit, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	m := newFakeModel(t, 8, evaluator.ExpressionNormal)
	m.color = evaluator.Color{R: 1, G: 0, B: 0, A: 1}
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	fl, _ := rc.FacelineTarget()
	img, err := b.ReadPixels(fl.Framebuffer)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 8 {
		t.Fatalf("faceline size = %v, want 4x8", img.Bounds())
	}
	// The alpha-mode decal samples no texture, reads r = 0 and discards,
	// leaving the clear color.
	if got := img.NRGBAAt(2, 5); got.R != 255 || got.G != 0 || got.A != 255 {
		t.Errorf("faceline pixel = %v, want opaque red", got)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	rc.Close()
	if rec.LiveTargets() != 0 || rec.LiveBuffers() != 0 || rec.LiveTextures() != 0 {
		t.Errorf("live after Close: targets %d buffers %d textures %d",
			rec.LiveTargets(), rec.LiveBuffers(), rec.LiveTextures())
	}
	if !m.deleted {
		t.Error("model not deleted")
	}
	if got := rec.Count("DeleteProgram"); got != 1 {
		t.Errorf("DeleteProgram = %d, want 1", got)
	}
}
