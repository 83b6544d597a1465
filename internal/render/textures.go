package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
)

var textureFormats = map[evaluator.TextureFormat]gputypes.TextureFormat{
	evaluator.TextureFormatR8:    gputypes.TextureFormatR8Unorm,
	evaluator.TextureFormatRG8:   gputypes.TextureFormatRG8Unorm,
	evaluator.TextureFormatRGBA8: gputypes.TextureFormatRGBA8Unorm,
}

// TextureOwner creates and deletes evaluator textures on a backend.
type TextureOwner struct {
	b    gpu.Backend
	log  *slog.Logger
	live map[gpu.Handle]struct{}
}

var _ evaluator.TextureCallback = (*TextureOwner)(nil)

// NewTextureOwner returns a texture callback backed by b.
func NewTextureOwner(b gpu.Backend, log *slog.Logger) *TextureOwner {
	if log == nil {
		log = slog.Default()
	}
	return &TextureOwner{b: b, log: log, live: make(map[gpu.Handle]struct{})}
}

// Textures returns a texture callback on the context's backend.
func (rc *RenderContext) Textures() *TextureOwner {
	return NewTextureOwner(rc.b, rc.log)
}

// CreateTexture uploads info with clamp-to-edge linear sampling. Mip
// levels are ignored. Unsupported formats are logged and yield 0.
func (o *TextureOwner) CreateTexture(info *evaluator.TextureInfo) gpu.Handle {
	format, ok := textureFormats[info.Format]
	if !ok {
		o.log.Error("texture dropped", "err", fmt.Errorf("%w: %d", ErrUnsupportedFormat, info.Format))
		return 0
	}
	h, err := o.b.CreateTexture(gpu.TextureDesc{
		Width:  info.Width,
		Height: info.Height,
		Format: format,
		Pixels: info.Pixels,
	})
	if err != nil {
		o.log.Error("texture dropped", "err", err)
		return 0
	}
	if info.MipCount > 1 {
		o.log.Log(context.Background(), LevelTrace, "mip levels ignored", "texture", h, "mips", info.MipCount)
	}
	o.b.BindTexture(0, h)
	o.b.SetSampler(gputypes.SamplerDescriptor{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MinFilter:    gputypes.FilterModeLinear,
		MagFilter:    gputypes.FilterModeLinear,
	})
	o.b.BindTexture(0, 0)
	o.live[h] = struct{}{}
	o.log.Debug("texture created", "texture", h, "width", info.Width, "height", info.Height, "format", format)
	return h
}

// DeleteTexture frees a texture made by CreateTexture.
func (o *TextureOwner) DeleteTexture(h gpu.Handle) {
	if _, ok := o.live[h]; !ok {
		return
	}
	delete(o.live, h)
	o.b.DeleteTexture(h)
	o.log.Debug("texture deleted", "texture", h)
}

// Live reports how many textures are alive.
func (o *TextureOwner) Live() int { return len(o.live) }
