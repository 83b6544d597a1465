package evaluator

import (
	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// ShaderCallback is implemented by the renderer and invoked synchronously by
// the evaluator once per primitive group.
type ShaderCallback interface {
	Draw(cmd *DrawCommand)
	// SetMatrix injects a single combined transform on the legacy bake path.
	SetMatrix(m mathutil.Mat4)
	ApplyAlphaTest(enable bool, fn gputypes.CompareFunction, ref float32)
}

// TextureFormat is the pixel layout of an evaluator texture.
type TextureFormat int

const (
	TextureFormatR8 TextureFormat = iota
	TextureFormatRG8
	TextureFormatRGBA8
)

// TextureInfo describes a texture the evaluator asks the renderer to own.
type TextureInfo struct {
	Width    int
	Height   int
	Format   TextureFormat
	Pixels   []byte
	MipCount int
	Mips     []byte
}

// TextureCallback lets the evaluator delegate texture lifetime. Create
// returns 0 when the texture cannot be created.
type TextureCallback interface {
	CreateTexture(info *TextureInfo) gpu.Handle
	DeleteTexture(h gpu.Handle)
}
