// Package gpu defines the GL-style state machine the avatar renderer drives.
//
// The vocabulary for blend, cull, sampler, topology and pixel formats comes
// from gputypes so a hardware backend and the software rasterizer share one
// set of enums. All methods must be called from the goroutine that owns the
// backend.
package gpu

import (
	"image"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/mathutil"
)

// Handle names a backend object. Zero is "no object".
type Handle uint32

// VertexFormatSnorm1010102 is signed 10-10-10-2 packed data, normalized to
// [-1, 1]. gputypes only models the unsigned variant.
const VertexFormatSnorm1010102 gputypes.VertexFormat = 0x100

// VertexLayout describes how an enabled attribute slot reads its buffer.
type VertexLayout struct {
	Format gputypes.VertexFormat
	Stride int
	Offset int
}

// ProgramSource carries both the GLSL text for hardware backends and the
// CPU kernel for the software rasterizer.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Kernel   Kernel
}

// TextureDesc describes a 2D texture upload. Mips are accepted and ignored.
type TextureDesc struct {
	Width  int
	Height int
	Format gputypes.TextureFormat
	Pixels []byte
	Mips   [][]byte
}

// RenderTarget is an offscreen framebuffer plus its sampleable color texture.
type RenderTarget struct {
	Framebuffer Handle
	Texture     Handle
	Width       int
	Height      int
}

// Rect is a viewport rectangle in pixels.
type Rect struct {
	X, Y, Width, Height int
}

// Backend is the immediate-mode GPU context.
type Backend interface {
	CreateProgram(src ProgramSource) (Handle, error)
	DeleteProgram(p Handle)
	UseProgram(p Handle)
	UniformLocation(p Handle, name string) int
	AttribLocation(p Handle, name string) int
	SetUniformInt(loc int, v int32)
	SetUniformFloat(loc int, v float32)
	SetUniformVec3(loc int, v mathutil.Vec3)
	SetUniformMat4(loc int, m mathutil.Mat4)
	SetUniformMat4Array(loc int, ms []mathutil.Mat4)

	CreateBuffer() Handle
	BufferData(b Handle, data []byte)
	DeleteBuffer(b Handle)
	EnableAttrib(loc int, b Handle, layout VertexLayout)
	DisableAttrib(loc int)

	CreateTexture(desc TextureDesc) (Handle, error)
	DeleteTexture(t Handle)
	BindTexture(unit int, t Handle)
	SetSampler(s gputypes.SamplerDescriptor)

	CreateRenderTarget(width, height int) (RenderTarget, error)
	DeleteRenderTarget(rt RenderTarget)
	BindFramebuffer(fb Handle)
	ReadPixels(fb Handle) (*image.NRGBA, error)

	Viewport() Rect
	SetViewport(r Rect)
	Clear(c gputypes.Color)
	SetCullMode(m gputypes.CullMode)
	SetBlend(b *gputypes.BlendState)
	SetDepthWrite(enabled bool)
	DrawIndexed(topology gputypes.PrimitiveTopology, indices Handle, count int)
}
