package render

import (
	"context"
	"encoding/binary"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
	"mii-renderer/internal/shader"
)

var cullModes = [...]gputypes.CullMode{
	evaluator.CullBack:  gputypes.CullModeBack,
	evaluator.CullFront: gputypes.CullModeFront,
	evaluator.CullNone:  gputypes.CullModeNone,
}

// Draw executes one draw command. Commands without indices set up state
// and draw nothing.
func (rc *RenderContext) Draw(cmd *evaluator.DrawCommand) {
	mod := &cmd.Modulate
	cull := gputypes.CullModeNone
	if int(cmd.Cull) >= 0 && int(cmd.Cull) < len(cullModes) {
		cull = cullModes[cmd.Cull]
	} else {
		rc.log.Log(context.Background(), LevelTrace, "unknown cull mode, culling disabled", "cull", cmd.Cull)
	}
	rc.b.SetCullMode(cull)

	rc.binder.Use()
	rc.binder.SetModulate(mod.Mode, mod.ColorR, mod.ColorG, mod.ColorB)

	tex := rc.resolveTexture(mod)
	if tex != 0 {
		rc.b.BindTexture(0, tex)
		rc.b.SetSampler(samplerFor(mod.Type))
		rc.binder.SetTextureUnit(0)
	} else {
		rc.b.BindTexture(0, 0)
	}

	if idx, ok := shader.MaterialIndex(mod.Type); ok {
		rc.binder.SetMaterial(idx)
		if rc.light {
			rim := rc.binder.Light().RimColor
			if mod.Type == evaluator.ShapeBody || mod.Type == evaluator.ShapePants {
				rim = shader.BodyRimColor
			}
			rc.binder.SetRimColor(rim)
		}
	}

	if len(cmd.Indices) > 0 {
		rc.bindAttributes(cmd)
		rc.drawIndexed(cmd.Topology, cmd.Indices)
	}

	rc.log.Log(context.Background(), LevelTrace, "draw",
		"mode", mod.Mode, "type", mod.Type, "cull", cmd.Cull, "texture", tex, "indices", len(cmd.Indices))

	rc.b.BindTexture(0, 0)
	rc.binder.Unbind()
}

// resolveTexture substitutes the baked targets for the faceline and mask
// classes. Before baking those classes bind no texture, so they sample
// the unbound value (0, 0, 0, 1).
func (rc *RenderContext) resolveTexture(mod *evaluator.ModulateParam) gpu.Handle {
	switch mod.Type {
	case evaluator.ShapeFaceline:
		if rt, ok := rc.pool.Target(SlotFaceline); ok {
			return rt.Texture
		}
		rc.log.Debug("faceline drawn without a baked target")
		return 0
	case evaluator.ShapeMask:
		if rc.current != nil {
			return rc.current.Texture
		}
		rc.log.Debug("mask drawn without a baked target")
		return 0
	}
	return mod.Texture
}

func samplerFor(t evaluator.ModulateType) gputypes.SamplerDescriptor {
	wrap := gputypes.AddressModeClampToEdge
	if t >= 0 && t < evaluator.ShapeMax {
		wrap = gputypes.AddressModeMirrorRepeat
	}
	return gputypes.SamplerDescriptor{
		AddressModeU: wrap,
		AddressModeV: wrap,
		MinFilter:    gputypes.FilterModeLinear,
		MagFilter:    gputypes.FilterModeLinear,
	}
}

// attributeFormat is the fixed vertex format per semantic.
func (rc *RenderContext) attributeFormat(a evaluator.Attribute) gputypes.VertexFormat {
	switch a {
	case evaluator.AttributePosition:
		return gputypes.VertexFormatFloat32x3
	case evaluator.AttributeTexcoord:
		return gputypes.VertexFormatFloat32x2
	case evaluator.AttributeNormal:
		if rc.opts.NormalSnorm8 {
			return gputypes.VertexFormatSnorm8x4
		}
		return gpu.VertexFormatSnorm1010102
	case evaluator.AttributeTangent:
		return gputypes.VertexFormatSnorm8x4
	case evaluator.AttributeColor:
		return rc.binder.ColorFormat()
	}
	return gputypes.VertexFormatUndefined
}

func (rc *RenderContext) bindAttributes(cmd *evaluator.DrawCommand) {
	for a := evaluator.Attribute(0); a < evaluator.AttributeCount; a++ {
		loc := rc.binder.AttribLocation(a)
		if loc < 0 {
			continue
		}
		buf := cmd.Attributes[a]
		if !buf.Present() {
			rc.b.DisableAttrib(loc)
			continue
		}
		h := rc.pool.Upload(a, buf.Data)
		rc.b.EnableAttrib(loc, h, gpu.VertexLayout{Format: rc.attributeFormat(a), Stride: buf.Stride})
	}

	if rc.binder.Style() != shader.StyleLit {
		return
	}
	idsLoc, weightsLoc := rc.binder.SkinLocations()
	skin := cmd.Skin
	if skin == nil || !skin.BoneIDs.Present() || !skin.BoneWeights.Present() {
		rc.binder.SetSkinning(nil)
		rc.b.DisableAttrib(idsLoc)
		rc.b.DisableAttrib(weightsLoc)
		return
	}
	ids, weights := rc.pool.UploadSkin(skin.BoneIDs.Data, skin.BoneWeights.Data)
	rc.b.EnableAttrib(idsLoc, ids, gpu.VertexLayout{Format: gputypes.VertexFormatFloat32x4, Stride: skin.BoneIDs.Stride})
	rc.b.EnableAttrib(weightsLoc, weights, gpu.VertexLayout{Format: gputypes.VertexFormatFloat32x4, Stride: skin.BoneWeights.Stride})
	rc.binder.SetSkinning(skin.Bones)
}

// drawIndexed uploads a transient 16-bit index buffer, draws and frees it.
func (rc *RenderContext) drawIndexed(topology gputypes.PrimitiveTopology, indices []uint16) {
	raw := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	ib := rc.b.CreateBuffer()
	rc.b.BufferData(ib, raw)
	rc.b.SetDepthWrite(true)
	rc.b.DrawIndexed(topology, ib, len(indices))
	rc.b.DeleteBuffer(ib)
}

// SetMatrix writes a combined transform for legacy bake draws.
func (rc *RenderContext) SetMatrix(m mathutil.Mat4) {
	rc.binder.Use()
	rc.binder.SetBakeTransform(m)
}

// ApplyAlphaTest is accepted and ignored; modulate discards cover cutouts.
func (rc *RenderContext) ApplyAlphaTest(enable bool, fn gputypes.CompareFunction, ref float32) {
	rc.log.Log(context.Background(), LevelTrace, "alpha test ignored", "enable", enable, "func", fn, "ref", ref)
}
