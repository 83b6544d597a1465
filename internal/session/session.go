// Package session drives one avatar from startup to finished frames:
// resource load, evaluator and model creation and baking, then per-frame
// blink updates and shaded draws of the head, body and accessories.
//
// A Session owns a gpu.Backend context and must stay on one goroutine.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/body"
	"mii-renderer/internal/config"
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/evaluator/procedural"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/render"
	"mii-renderer/internal/resource"
	"mii-renderer/internal/shader"
	"mii-renderer/internal/texture"
)

// ErrUnavailable is returned by model operations on a degraded session.
var ErrUnavailable = errors.New("session: avatar unavailable")

// accessoryRadius is the stud size in head units.
const accessoryRadius = 1.6

// Options configure Open.
type Options struct {
	// Config must already be resolved.
	Config     config.Config
	Descriptor []byte
	// Resource, when set, is used instead of reading Config.ResourcePath.
	Resource []byte
	Backend  gpu.Backend
	Style    shader.Style
	Decals   texture.Resolver
	Logger   *slog.Logger
}

// Session is one avatar bound to one backend.
type Session struct {
	cfg config.Config
	b   gpu.Backend
	log *slog.Logger
	rc  *render.RenderContext

	lib       evaluator.Library
	model     evaluator.Model
	blinker   *render.Blinker
	skeleton  *body.Skeleton
	body      *body.Body
	accessory *body.Accessory
	err       error

	background gputypes.Color
	camera     Camera
	yaw        float64
}

// Open compiles the renderer and tries to bring up the avatar. Resource,
// evaluator and descriptor failures leave a session that renders only the
// background and reports the cause through Err. Only renderer setup and
// config errors are returned.
func Open(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cfg := opts.Config
	exprs, err := cfg.ExpressionSet()
	if err != nil {
		return nil, err
	}
	active, err := cfg.ActiveExpression()
	if err != nil {
		return nil, err
	}

	rc, err := render.New(opts.Backend, render.Options{
		Style:        opts.Style,
		Light:        config.Enabled(cfg.Light),
		NormalSnorm8: !config.Enabled(cfg.PackedNormals),
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		cfg:        cfg,
		b:          opts.Backend,
		log:        opts.Logger,
		rc:         rc,
		background: background(cfg.Background),
	}
	if err := s.load(opts, exprs, active); err != nil {
		s.err = err
		s.log.Error("avatar unavailable, rendering background only", "err", err)
	}
	s.camera = Frame(s.skeleton, s.body != nil)
	return s, nil
}

func (s *Session) load(opts Options, exprs evaluator.ExpressionSet, active evaluator.Expression) error {
	data := opts.Resource
	if data == nil {
		var err error
		if data, err = resource.Load(s.cfg.ResourcePath, s.log); err != nil {
			return err
		}
	}
	snorm8 := !config.Enabled(s.cfg.PackedNormals)
	lib, err := procedural.NewLibrary(data, evaluator.Config{
		FlipY:        config.Enabled(s.cfg.FlipY),
		NormalSnorm8: snorm8,
		Textures:     s.rc.Textures(),
	}, procedural.Options{Decals: opts.Decals, Logger: s.log})
	if err != nil {
		return fmt.Errorf("session: init evaluator: %w", err)
	}
	s.lib = lib

	model, err := lib.NewModel(evaluator.ModelDesc{
		Data:        opts.Descriptor,
		Resolution:  s.cfg.Resolution,
		Expressions: exprs,
	})
	if err != nil {
		return fmt.Errorf("session: create model: %w", err)
	}
	model.SetExpression(active)
	start := time.Now()
	if err := s.rc.Bake(model); err != nil {
		model.Delete()
		return fmt.Errorf("session: %w", err)
	}
	s.model = model
	s.log.Debug("model baked", "expressions", len(exprs.All()), "resolution", model.Resolution(), "elapsed", time.Since(start))

	s.startBlinker(model.Expression())
	height, build := model.BodyInfo()
	s.skeleton = body.Pose(body.ScaleFactors(height, build))
	if config.Enabled(s.cfg.Body) {
		s.body = body.New(snorm8)
		s.accessory = body.NewAccessory(snorm8, accessoryRadius, studColor(model))
	}
	return nil
}

func (s *Session) startBlinker(restore evaluator.Expression) {
	s.blinker = nil
	if !s.model.Expressions().Has(evaluator.ExpressionBlink) {
		s.log.Debug("blink not baked, eyes stay open")
		return
	}
	s.blinker = render.NewBlinker(s.rc, restore, s.cfg.BlinkInterval.Duration, s.cfg.BlinkDuration.Duration)
}

// studColor is the character's favorite color, or white for models that
// do not expose a descriptor.
func studColor(m evaluator.Model) evaluator.Color {
	pm, ok := m.(*procedural.Model)
	if !ok {
		return evaluator.Color{R: 1, G: 1, B: 1, A: 1}
	}
	i := pm.Descriptor().FavoriteColor
	if i < 0 || i >= len(procedural.FavoriteColors) {
		i = 0
	}
	return procedural.FavoriteColors[i]
}

func background(c []float64) gputypes.Color {
	if len(c) != 4 {
		c = config.DefaultBackground
	}
	return gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Available reports whether the avatar was brought up.
func (s *Session) Available() bool { return s.model != nil }

// Err returns why the avatar is unavailable, or nil.
func (s *Session) Err() error { return s.err }

// Context exposes the renderer.
func (s *Session) Context() *render.RenderContext { return s.rc }

// Model returns the baked model, or nil on a degraded session.
func (s *Session) Model() evaluator.Model { return s.model }

// Camera returns the scene camera.
func (s *Session) Camera() Camera { return s.camera }

// SetCamera replaces the scene camera.
func (s *Session) SetCamera(c Camera) { s.camera = c }

// SetYaw turns the character about the vertical axis, in radians.
func (s *Session) SetYaw(rad float64) { s.yaw = rad }

// SetExpression shows e and makes it the expression blinks return to. The
// next blink still waits a full interval from the previous one.
func (s *Session) SetExpression(e evaluator.Expression) error {
	if s.model == nil {
		return ErrUnavailable
	}
	if !s.model.Expressions().Has(e) {
		return fmt.Errorf("session: expression %v was not baked", e)
	}
	s.rc.SetExpression(e)
	if s.blinker != nil {
		s.blinker.SetRestore(e)
	}
	return nil
}

// Update advances the blink state machine to now, a monotonic time since
// the session started.
func (s *Session) Update(now time.Duration) render.BlinkState {
	if s.blinker == nil {
		return render.BlinkOpen
	}
	return s.blinker.Update(now)
}

// Close releases every GPU object and the evaluator.
func (s *Session) Close() {
	s.rc.Close()
	s.model = nil
	if s.lib != nil {
		s.lib.Close()
		s.lib = nil
	}
}
