// Package render executes an avatar evaluator's draw commands against a
// gpu.Backend. A RenderContext owns the shader program, the attribute
// buffers and the baked faceline and mask targets for one model; all of
// its methods must run on the goroutine that owns the backend.
package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
	"mii-renderer/internal/shader"
)

// ErrUnsupportedFormat is logged when the evaluator hands over a texture
// in a pixel format the renderer cannot upload.
var ErrUnsupportedFormat = errors.New("render: unsupported texture format")

// Options configure a RenderContext.
type Options struct {
	Style shader.Style
	// Light enables lighting for scene draws. Bake passes are always unlit.
	Light bool
	// BlinnOnly forces isotropic specular on every material.
	BlinnOnly bool
	// NormalSnorm8 expects normals as 4×int8 instead of packed 10-10-10-2.
	NormalSnorm8 bool
	Logger       *slog.Logger
}

// DefaultBlend is ordinary source-over blending, restored after baking.
var DefaultBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
	Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
}

// RenderContext is the draw command interpreter plus the state it needs.
type RenderContext struct {
	b      gpu.Backend
	log    *slog.Logger
	opts   Options
	binder *shader.Binder
	pool   *Pool

	model   evaluator.Model
	baked   bool
	current *gpu.RenderTarget
	light   bool
}

var _ evaluator.ShaderCallback = (*RenderContext)(nil)

// New compiles the program and allocates the attribute buffers.
func New(b gpu.Backend, opts Options) (*RenderContext, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	binder, err := shader.NewBinder(b, opts.Style, shader.Options{BlinnOnly: opts.BlinnOnly, Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &RenderContext{
		b:      b,
		log:    opts.Logger,
		opts:   opts,
		binder: binder,
		pool:   NewPool(b, opts.Logger),
	}, nil
}

// Backend returns the GPU context the renderer drives.
func (rc *RenderContext) Backend() gpu.Backend { return rc.b }

// Binder exposes the shader binder.
func (rc *RenderContext) Binder() *shader.Binder { return rc.binder }

// Pool exposes the resource pool.
func (rc *RenderContext) Pool() *Pool { return rc.pool }

// Model returns the model bound by the last Bake, or nil.
func (rc *RenderContext) Model() evaluator.Model { return rc.model }

// Baked reports whether the faceline and mask targets exist.
func (rc *RenderContext) Baked() bool { return rc.baked }

// BeginScene binds the program for shaded drawing with the given transform.
func (rc *RenderContext) BeginScene(model, view, proj mathutil.Mat4) {
	rc.light = rc.opts.Light
	rc.binder.Bind(rc.light)
	rc.binder.SetSceneTransform(model, view, proj)
	rc.b.SetBlend(&DefaultBlend)
}

// SetModelMatrix replaces the model transform inside a scene.
func (rc *RenderContext) SetModelMatrix(model, view, proj mathutil.Mat4) {
	rc.binder.Use()
	rc.binder.SetSceneTransform(model, view, proj)
}

// DrawModel issues the bound model's opaque then translucent geometry.
func (rc *RenderContext) DrawModel() {
	if rc.model == nil {
		return
	}
	rc.model.DrawOpa(rc)
	rc.model.DrawXlu(rc)
}

// Close releases every GPU object the context created and deletes the
// bound model.
func (rc *RenderContext) Close() {
	if rc.model != nil {
		rc.model.Delete()
		rc.model = nil
	}
	rc.current = nil
	rc.baked = false
	rc.pool.Close()
	rc.binder.Close()
}
