package procedural

import (
	"image"
	"log/slog"
	"strings"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/texture"
)

// Model is one evaluated avatar.
type Model struct {
	lib  *Library
	d    *Descriptor
	log  *slog.Logger
	res  int
	set  evaluator.ExpressionSet
	expr evaluator.Expression

	layout layout
	opa    []*evaluator.DrawCommand
	xlu    []*evaluator.DrawCommand
	parts  evaluator.PartsTransform

	// glass persists for the model lifetime; decals only until
	// ReleaseTextureScratch.
	glass  gpu.Handle
	decals map[string]gpu.Handle
}

var _ evaluator.Model = (*Model)(nil)

func newModel(l *Library, d *Descriptor, desc evaluator.ModelDesc) *Model {
	m := &Model{
		lib:    l,
		d:      d,
		log:    l.log.With("avatar", d.Name),
		res:    desc.Resolution,
		set:    desc.Expressions,
		layout: layout{d: d},
		decals: make(map[string]gpu.Handle),
	}
	if m.res <= 0 {
		m.res = DefaultResolution
	}
	if m.set.Len() == 0 {
		m.set, _ = evaluator.NewExpressionSet(evaluator.ExpressionNormal)
	}
	m.expr = m.set.All()[0]

	enc := encoding{normalSnorm8: l.cfg.NormalSnorm8}
	geo := geometry{d: d, flipY: l.cfg.FlipY}
	skin := pick(facelineColors, d.SkinColor)

	face := evaluator.ModulateParam{Mode: evaluator.ModulateTexture, Type: evaluator.ShapeFaceline}
	if !m.NeedsFaceline() {
		face = evaluator.ModulateParam{Mode: evaluator.ModulateConstant, Type: evaluator.ShapeFaceline, ColorR: skin}
	}
	m.opa = []*evaluator.DrawCommand{
		enc.command(geo.faceline(), evaluator.CullBack, face),
		enc.command(geo.nose(), evaluator.CullBack, evaluator.ModulateParam{
			Mode: evaluator.ModulateConstant, Type: evaluator.ShapeNose, ColorR: skin,
		}),
		enc.command(geo.hair(), evaluator.CullBack, evaluator.ModulateParam{
			Mode: evaluator.ModulateConstant, Type: evaluator.ShapeHair, ColorR: pick(hairColors, d.HairColor),
		}),
	}
	m.xlu = []*evaluator.DrawCommand{
		enc.command(geo.mask(), evaluator.CullBack, evaluator.ModulateParam{
			Mode: evaluator.ModulateTexture, Type: evaluator.ShapeMask,
		}),
	}
	if g := geo.glass(m.layout.eyeV()); g != nil {
		m.glass = m.createTexture("glass", func() *canvas { return glassDecal(d.GlassType) })
		if m.glass != 0 {
			m.xlu = append(m.xlu, enc.command(g, evaluator.CullNone, evaluator.ModulateParam{
				Mode: evaluator.ModulateAlpha, Type: evaluator.ShapeGlass,
				ColorR: pick(glassColors, d.GlassColor), Texture: m.glass,
			}))
		}
	}
	m.parts = geo.partsTransform(m.layout.eyeV())
	m.log.Debug("model created", "resolution", m.res, "expressions", m.set.Len(), "faceline", m.NeedsFaceline())
	return m
}

func (m *Model) Descriptor() *Descriptor                  { return m.d }
func (m *Model) Resolution() int                          { return m.res }
func (m *Model) Expressions() evaluator.ExpressionSet     { return m.set }
func (m *Model) Expression() evaluator.Expression         { return m.expr }
func (m *Model) SetExpression(e evaluator.Expression)     { m.expr = e }
func (m *Model) PartsTransform() evaluator.PartsTransform { return m.parts }
func (m *Model) BodyInfo() (height, build int)            { return m.d.Height, m.d.Build }

// NeedsFaceline reports whether any faceline decal is present.
func (m *Model) NeedsFaceline() bool {
	return m.d.Makeup > 0 || m.d.Wrinkle > 0 || m.d.BeardType > 0
}

func (m *Model) FacelineColor() evaluator.Color {
	return *pick(facelineColors, m.d.SkinColor)
}

func (m *Model) DrawOpa(cb evaluator.ShaderCallback) {
	for _, cmd := range m.opa {
		cb.Draw(cmd)
	}
}

func (m *Model) DrawXlu(cb evaluator.ShaderCallback) {
	for _, cmd := range m.xlu {
		cb.Draw(cmd)
	}
}

// DrawFaceline draws makeup, wrinkles and beard stipple in that order.
func (m *Model) DrawFaceline(cb evaluator.ShaderCallback) {
	cb.SetMatrix(bakeMatrix(m.lib.cfg.FlipY))
	d := m.d
	if d.Makeup > 0 {
		h := m.decal("makeup", func() *canvas { return makeupDecal(d.Makeup) })
		for _, p := range cheeks {
			m.drawDecal(cb, h, p, evaluator.ModulateParam{Mode: evaluator.ModulateTexture, Type: evaluator.TextureFaceMake})
		}
	}
	if d.Wrinkle > 0 {
		h := m.decal("wrinkle", func() *canvas { return wrinkleDecal(d.Wrinkle) })
		skin := m.FacelineColor()
		shade := evaluator.Color{R: skin.R * 0.7, G: skin.G * 0.7, B: skin.B * 0.7, A: 1}
		for _, p := range wrinkles {
			m.drawDecal(cb, h, p, evaluator.ModulateParam{Mode: evaluator.ModulateAlpha, Type: evaluator.TextureFacelineWrinkle, ColorR: &shade})
		}
	}
	if d.BeardType > 0 {
		h := m.decal("beard", func() *canvas { return beardDecal(d.BeardType) })
		m.drawDecal(cb, h, beardArea, evaluator.ModulateParam{
			Mode: evaluator.ModulateAlpha, Type: evaluator.TextureFacelineBeard, ColorR: pick(hairColors, d.BeardColor),
		})
	}
}

// DrawMask draws eyebrows, eyes, mouth, mustache and mole for e.
func (m *Model) DrawMask(e evaluator.Expression, cb evaluator.ShaderCallback) {
	if !e.Valid() {
		m.log.Warn("mask for invalid expression", "expression", e)
		return
	}
	cb.SetMatrix(bakeMatrix(m.lib.cfg.FlipY))
	d, p, l := m.d, poses[e], m.layout

	brow := m.decal("eyebrow", func() *canvas { return eyebrowDecal(d.EyebrowType) })
	for _, pl := range l.eyebrows(p) {
		m.drawDecal(cb, brow, pl, evaluator.ModulateParam{
			Mode: evaluator.ModulateAlpha, Type: evaluator.TextureEyebrow, ColorR: pick(hairColors, d.EyebrowColor),
		})
	}

	eyeMod := evaluator.ModulateParam{
		Mode: evaluator.ModulateRGBLayered, Type: evaluator.TextureEye,
		ColorR: pick(eyeColors, d.EyeColor), ColorG: &white, ColorB: &black,
	}
	for i, shape := range [2]eyeShape{p.left, p.right} {
		h := m.decal(eyeNames[shape], func() *canvas { return eyeDecal(shape, d.EyeType) })
		m.drawDecal(cb, h, l.eyes()[i], eyeMod)
	}

	mouth := m.decal(mouthNames[p.mouth], func() *canvas { return mouthDecal(p.mouth, d.MouthType) })
	m.drawDecal(cb, mouth, l.mouth(), evaluator.ModulateParam{
		Mode: evaluator.ModulateRGBLayered, Type: evaluator.TextureMouth,
		ColorR: pick(mouthColors, d.MouthColor), ColorG: &white, ColorB: &mouthDark,
	})

	if d.MustacheType > 0 {
		h := m.decal("mustache", func() *canvas { return mustacheDecal(d.MustacheType) })
		m.drawDecal(cb, h, l.mustache(), evaluator.ModulateParam{
			Mode: evaluator.ModulateAlpha, Type: evaluator.TextureMustache, ColorR: pick(hairColors, d.BeardColor),
		})
	}
	if d.Mole {
		h := m.decal("mole", moleDecal)
		m.drawDecal(cb, h, l.mole(), evaluator.ModulateParam{
			Mode: evaluator.ModulateAlpha, Type: evaluator.TextureMole, ColorR: &black,
		})
	}
}

// drawDecal skips decals whose texture could not be created.
func (m *Model) drawDecal(cb evaluator.ShaderCallback, h gpu.Handle, p placement, mod evaluator.ModulateParam) {
	if h == 0 {
		return
	}
	mod.Texture = h
	cb.Draw(decalQuad(p.center, p.size, p.angle, p.mirror, mod))
}

// decal returns the scratch texture for name, creating it on first use.
func (m *Model) decal(name string, gen func() *canvas) gpu.Handle {
	if h, ok := m.decals[name]; ok {
		return h
	}
	h := m.createTexture(name, gen)
	m.decals[name] = h
	return h
}

// createTexture hands a generated or overridden decal to the texture
// callback.
func (m *Model) createTexture(name string, gen func() *canvas) gpu.Handle {
	cb := m.lib.cfg.Textures
	if cb == nil {
		return 0
	}
	c := gen()
	info := c.info()
	if img := m.override(name); img != nil {
		pix, err := texture.FromImage(texture.Resize(img, c.w, c.h), c.format)
		if err == nil {
			info.Pixels = pix
			m.log.Debug("decal override", "name", name)
		}
	}
	h := cb.CreateTexture(info)
	if h == 0 {
		m.log.Warn("decal texture rejected", "name", name)
	}
	return h
}

// override looks name up, then its base before the first underscore.
func (m *Model) override(name string) *image.NRGBA {
	r := m.lib.opts.Decals
	if r == nil {
		return nil
	}
	if img := r.Resolve(name); img != nil {
		return img
	}
	if base, _, ok := strings.Cut(name, "_"); ok {
		return r.Resolve(base)
	}
	return nil
}

// ReleaseTextureScratch deletes the decal textures used for baking. A
// later bake recreates them on demand.
func (m *Model) ReleaseTextureScratch() {
	cb := m.lib.cfg.Textures
	for name, h := range m.decals {
		if cb != nil && h != 0 {
			cb.DeleteTexture(h)
		}
		delete(m.decals, name)
	}
}

// Delete releases every texture the model owns.
func (m *Model) Delete() {
	m.ReleaseTextureScratch()
	if m.glass != 0 && m.lib.cfg.Textures != nil {
		m.lib.cfg.Textures.DeleteTexture(m.glass)
	}
	m.glass = 0
	m.opa, m.xlu = nil, nil
	m.log.Debug("model deleted")
}
