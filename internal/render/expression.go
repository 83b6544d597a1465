package render

import (
	"fmt"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
)

// SetExpression switches the model's expression and repoints the current
// mask. Setting the active expression again changes nothing. An
// expression outside the enumeration, or one without a baked mask, panics.
func (rc *RenderContext) SetExpression(e evaluator.Expression) {
	if !e.Valid() {
		panic(fmt.Sprintf("render: expression %d out of range", int(e)))
	}
	if rc.model == nil {
		return
	}
	if rc.baked {
		rt := rc.MaskTarget(e)
		if rc.current == nil || *rc.current != rt {
			rc.current = &rt
		}
	}
	if rc.model.Expression() != e {
		rc.model.SetExpression(e)
	}
}

// Expression returns the model's active expression.
func (rc *RenderContext) Expression() evaluator.Expression {
	if rc.model == nil {
		return evaluator.ExpressionNormal
	}
	return rc.model.Expression()
}

// CurrentMask returns the mask target sampled by mask-class draws.
func (rc *RenderContext) CurrentMask() (gpu.RenderTarget, bool) {
	if rc.current == nil {
		return gpu.RenderTarget{}, false
	}
	return *rc.current, true
}
