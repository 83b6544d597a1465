package session

import (
	"fmt"
	"image"
	"math"

	"mii-renderer/internal/body"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
	"mii-renderer/internal/postprocess"
	"mii-renderer/internal/render"
)

// headCenterY is the middle of the head mesh in head units.
const headCenterY = 17

// minSpeck is the island size, as a fraction of opaque pixels, below
// which icon frames drop stray fragments.
const minSpeck = 0.002

// Camera is a perspective look-at camera.
type Camera struct {
	Eye, Target mathutil.Vec3
	FovY        float64
	Near, Far   float64
}

// View returns the view matrix.
func (c Camera) View() mathutil.Mat4 {
	return mathutil.Mat4LookAt(c.Eye, c.Target, mathutil.Vec3{0, 1, 0})
}

// Projection returns the projection for a w×h viewport.
func (c Camera) Projection(w, h int) mathutil.Mat4 {
	return mathutil.Mat4Perspective(c.FovY, float64(w)/float64(h), c.Near, c.Far)
}

// Frame returns a front camera that fits the posed character, or only its
// head when withBody is false. A nil skeleton frames the rest pose.
func Frame(sk *body.Skeleton, withBody bool) Camera {
	if sk == nil {
		sk = body.Pose(mathutil.Vec3{1, 1, 1})
	}
	head := sk.HeadMatrix()
	center := head.MulPoint(mathutil.Vec3{0, headCenterY, 0})
	top := head.MulPoint(mathutil.Vec3{0, 2 * headCenterY, 0})[1]
	span := 2 * (top - center[1])
	if withBody {
		span = top
		center = mathutil.Vec3{0, top / 2, 0}
	}
	fov := mathutil.Deg2Rad(35)
	dist := span * 0.6 / math.Tan(fov/2)
	return Camera{
		Eye:    center.Add(mathutil.Vec3{0, 0, dist}),
		Target: center,
		FovY:   fov,
		Near:   dist / 10,
		Far:    dist * 4,
	}
}

// Draw renders the scene into the bound framebuffer over a w×h viewport.
// A degraded session draws only the background.
func (s *Session) Draw(w, h int) {
	s.b.SetViewport(gpu.Rect{Width: w, Height: h})
	s.b.Clear(s.background)
	if s.model == nil {
		return
	}

	view := s.camera.View()
	proj := s.camera.Projection(w, h)
	root := mathutil.FromMat3Translation(mathutil.RotY(s.yaw), mathutil.Vec3{})
	head := mathutil.Mat4Mul(root, s.skeleton.HeadMatrix())

	s.rc.BeginScene(root, view, proj)
	if s.body != nil {
		s.body.Draw(s.rc, s.skeleton)
		for _, m := range s.accessory.Matrices(head, s.model.PartsTransform()) {
			s.rc.SetModelMatrix(m, view, proj)
			s.accessory.Draw(s.rc)
		}
	}
	s.rc.SetModelMatrix(head, view, proj)
	s.rc.DrawModel()
}

// Render draws one frame into the offscreen frame target at the
// configured size times the supersample factor, reads it back and
// returns it top row first at the configured size.
func (s *Session) Render() (*image.NRGBA, error) {
	ss := max(1, s.cfg.Supersample)
	w, h := s.cfg.Width*ss, s.cfg.Height*ss

	pool := s.rc.Pool()
	rt, ok := pool.Target(render.SlotFrame)
	if !ok || rt.Width != w || rt.Height != h {
		var err error
		if rt, err = pool.CreateTarget(render.SlotFrame, w, h); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	viewport := s.b.Viewport()
	s.b.BindFramebuffer(rt.Framebuffer)
	s.Draw(w, h)
	raw, err := s.b.ReadPixels(rt.Framebuffer)
	s.b.BindFramebuffer(0)
	s.b.SetViewport(viewport)
	if err != nil {
		return nil, fmt.Errorf("session: read frame: %w", err)
	}

	return postprocess.Frame(raw, postprocess.Options{
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		BottomUp: true,
		Icon:     s.cfg.Icon,
		MinSpeck: minSpeck,
	}), nil
}
