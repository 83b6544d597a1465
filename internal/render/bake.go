package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// FacelineBlend composites faceline decals over the skin color.
var FacelineBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
	Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
}

// MaskBlend layers mask parts so earlier parts stay on top.
var MaskBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOneMinusDstAlpha, DstFactor: gputypes.BlendFactorDstAlpha, Operation: gputypes.BlendOperationAdd},
	Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorDstAlpha, Operation: gputypes.BlendOperationAdd},
}

var errNoExpressions = errors.New("render: model requests no expressions")

// Bake renders model's faceline and one mask per requested expression
// into owned targets and binds model to the context. It must complete
// before any shaded draw of the model. Baking again releases each slot's
// previous target before recreating it.
func (rc *RenderContext) Bake(model evaluator.Model) error {
	exprs := model.Expressions()
	if exprs.Len() == 0 {
		return errNoExpressions
	}
	if rc.model != nil && rc.model != model {
		rc.pool.ReleaseTargets()
	}
	rc.model = model
	rc.baked = false
	rc.current = nil

	viewport := rc.b.Viewport()
	defer func() {
		rc.b.SetBlend(&DefaultBlend)
		rc.b.SetViewport(viewport)
		rc.b.BindFramebuffer(0)
	}()

	rc.light = false
	rc.binder.Bind(false)
	rc.binder.SetBakeTransform(mathutil.Mat4Identity())
	rc.b.SetCullMode(gputypes.CullModeNone)

	res := model.Resolution()
	if model.NeedsFaceline() {
		c := model.FacelineColor()
		if err := rc.bakePass(SlotFaceline, res/2, res, gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A}, &FacelineBlend); err != nil {
			return err
		}
		rc.log.Debug("bake faceline", "width", res/2, "height", res)
		model.DrawFaceline(rc)
	} else {
		rc.pool.Release(SlotFaceline)
	}

	for e := evaluator.Expression(0); e < evaluator.ExpressionLimit; e++ {
		if !exprs.Has(e) {
			rc.pool.Release(MaskSlot(e))
		}
	}
	for _, e := range exprs.All() {
		if err := rc.bakePass(MaskSlot(e), res, res, gputypes.Color{}, &MaskBlend); err != nil {
			return err
		}
		rc.log.Debug("bake mask", "expression", e, "size", res)
		model.DrawMask(e, rc)
	}

	active := model.Expression()
	if !exprs.Has(active) {
		rc.log.Warn("active expression was not baked", "expression", active, "fallback", exprs.All()[0])
		active = exprs.All()[0]
		model.SetExpression(active)
	}
	rt, _ := rc.pool.Target(MaskSlot(active))
	rc.current = &rt
	model.ReleaseTextureScratch()
	rc.baked = true
	return nil
}

func (rc *RenderContext) bakePass(slot Slot, w, h int, clear gputypes.Color, blend *gputypes.BlendState) error {
	rt, err := rc.pool.CreateTarget(slot, w, h)
	if err != nil {
		return fmt.Errorf("render: bake %s: %w", slot, err)
	}
	rc.b.BindFramebuffer(rt.Framebuffer)
	rc.b.SetViewport(gpu.Rect{Width: w, Height: h})
	rc.b.Clear(clear)
	rc.b.SetBlend(blend)
	return nil
}

// FacelineTarget returns the baked faceline target.
func (rc *RenderContext) FacelineTarget() (gpu.RenderTarget, bool) {
	return rc.pool.Target(SlotFaceline)
}

// MaskTarget returns the mask baked for e. Asking for an expression the
// model did not request is a contract violation and panics.
func (rc *RenderContext) MaskTarget(e evaluator.Expression) gpu.RenderTarget {
	rt, ok := rc.pool.Target(MaskSlot(e))
	if !ok {
		panic(fmt.Sprintf("render: no mask target for expression %v", e))
	}
	return rt
}
