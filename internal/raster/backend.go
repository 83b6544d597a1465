// Package raster is a CPU implementation of gpu.Backend. It executes the
// programs' gpu.Kernel code per vertex and per fragment into RGBA8 render
// targets with a float depth buffer.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

var (
	// ErrTextureFormat is returned for pixel formats the rasterizer cannot store.
	ErrTextureFormat = errors.New("raster: unsupported texture format")
	// ErrTextureSize is returned when pixel data does not cover width×height.
	ErrTextureSize = errors.New("raster: texture data too short")
)

const maxAttribs = 16

// Stats counts work since the last ResetStats.
type Stats struct {
	Draws     int
	Triangles int
	Fragments int
}

type program struct {
	kernel   gpu.Kernel
	uniforms uniformStore
}

type attribSlot struct {
	enabled bool
	buffer  gpu.Handle
	layout  gpu.VertexLayout
}

type renderTarget struct {
	fb      *FrameBuffer
	texture gpu.Handle
}

// Backend is a single-threaded software GPU context.
type Backend struct {
	log *slog.Logger

	next     gpu.Handle
	programs map[gpu.Handle]*program
	buffers  map[gpu.Handle][]byte
	textures map[gpu.Handle]*Texture
	targets  map[gpu.Handle]renderTarget

	screen      *FrameBuffer
	current     *program
	attribs     [maxAttribs]attribSlot
	units       [8]gpu.Handle
	framebuffer gpu.Handle
	viewport    gpu.Rect
	cull        gputypes.CullMode
	blend       *gputypes.BlendState
	depthWrite  bool
	stats       Stats
}

var _ gpu.Backend = (*Backend)(nil)

// New creates a backend whose default framebuffer is width×height.
func New(width, height int, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		log:        log,
		programs:   make(map[gpu.Handle]*program),
		buffers:    make(map[gpu.Handle][]byte),
		textures:   make(map[gpu.Handle]*Texture),
		targets:    make(map[gpu.Handle]renderTarget),
		screen:     NewFrameBuffer(width, height),
		viewport:   gpu.Rect{Width: width, Height: height},
		depthWrite: true,
	}
}

func (b *Backend) alloc() gpu.Handle {
	b.next++
	return b.next
}

// Stats returns the work counters.
func (b *Backend) Stats() Stats { return b.stats }

// ResetStats zeroes the work counters.
func (b *Backend) ResetStats() { b.stats = Stats{} }

// Screen returns the default framebuffer.
func (b *Backend) Screen() *FrameBuffer { return b.screen }

func (b *Backend) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	if src.Kernel == nil {
		return 0, fmt.Errorf("raster: program %q has no kernel", src.Name)
	}
	h := b.alloc()
	b.programs[h] = &program{kernel: src.Kernel, uniforms: make(uniformStore, len(src.Kernel.Uniforms()))}
	b.log.Debug("program created", "name", src.Name, "handle", h)
	return h, nil
}

func (b *Backend) DeleteProgram(p gpu.Handle) {
	if prog, ok := b.programs[p]; ok && prog == b.current {
		b.current = nil
	}
	delete(b.programs, p)
}

func (b *Backend) UseProgram(p gpu.Handle) {
	b.current = b.programs[p]
}

func (b *Backend) UniformLocation(p gpu.Handle, name string) int {
	prog, ok := b.programs[p]
	if !ok {
		return -1
	}
	return gpu.Location(prog.kernel.Uniforms(), name)
}

func (b *Backend) AttribLocation(p gpu.Handle, name string) int {
	prog, ok := b.programs[p]
	if !ok {
		return -1
	}
	loc := gpu.Location(prog.kernel.Attributes(), name)
	if loc >= maxAttribs {
		return -1
	}
	return loc
}

func (b *Backend) setUniform(loc int, v any) {
	if b.current == nil || loc < 0 || loc >= len(b.current.uniforms) {
		return
	}
	b.current.uniforms[loc] = v
}

func (b *Backend) SetUniformInt(loc int, v int32)          { b.setUniform(loc, v) }
func (b *Backend) SetUniformFloat(loc int, v float32)      { b.setUniform(loc, v) }
func (b *Backend) SetUniformVec3(loc int, v mathutil.Vec3) { b.setUniform(loc, v) }
func (b *Backend) SetUniformMat4(loc int, m mathutil.Mat4) { b.setUniform(loc, m) }
func (b *Backend) SetUniformMat4Array(loc int, ms []mathutil.Mat4) {
	b.setUniform(loc, append([]mathutil.Mat4(nil), ms...))
}

func (b *Backend) CreateBuffer() gpu.Handle {
	h := b.alloc()
	b.buffers[h] = nil
	return h
}

func (b *Backend) BufferData(h gpu.Handle, data []byte) {
	if _, ok := b.buffers[h]; !ok {
		return
	}
	b.buffers[h] = append(b.buffers[h][:0], data...)
}

func (b *Backend) DeleteBuffer(h gpu.Handle) {
	delete(b.buffers, h)
}

func (b *Backend) EnableAttrib(loc int, buf gpu.Handle, layout gpu.VertexLayout) {
	if loc < 0 || loc >= maxAttribs {
		return
	}
	b.attribs[loc] = attribSlot{enabled: true, buffer: buf, layout: layout}
}

func (b *Backend) DisableAttrib(loc int) {
	if loc < 0 || loc >= maxAttribs {
		return
	}
	b.attribs[loc].enabled = false
}

func (b *Backend) CreateTexture(desc gpu.TextureDesc) (gpu.Handle, error) {
	pix, err := expandPixels(desc)
	if err != nil {
		return 0, err
	}
	h := b.alloc()
	b.textures[h] = &Texture{Width: desc.Width, Height: desc.Height, Pix: pix}
	return h, nil
}

// expandPixels converts R8, RG8 and RGBA8 uploads into RGBA8 storage.
// Missing channels read as 0 and alpha as 1.
func expandPixels(desc gpu.TextureDesc) ([]uint8, error) {
	var channels int
	switch desc.Format {
	case gputypes.TextureFormatR8Unorm:
		channels = 1
	case gputypes.TextureFormatRG8Unorm:
		channels = 2
	case gputypes.TextureFormatRGBA8Unorm:
		channels = 4
	default:
		return nil, fmt.Errorf("%w: %v", ErrTextureFormat, desc.Format)
	}
	n := desc.Width * desc.Height
	if desc.Width <= 0 || desc.Height <= 0 || len(desc.Pixels) < n*channels {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, got %d",
			ErrTextureSize, desc.Width, desc.Height, n*channels, len(desc.Pixels))
	}
	if channels == 4 {
		return append([]uint8(nil), desc.Pixels[:n*4]...), nil
	}
	pix := make([]uint8, n*4)
	for i := 0; i < n; i++ {
		copy(pix[i*4:], desc.Pixels[i*channels:(i+1)*channels])
		pix[i*4+3] = 255
	}
	return pix, nil
}

func (b *Backend) DeleteTexture(t gpu.Handle) {
	delete(b.textures, t)
	for i := range b.units {
		if b.units[i] == t {
			b.units[i] = 0
		}
	}
}

func (b *Backend) BindTexture(unit int, t gpu.Handle) {
	if unit < 0 || unit >= len(b.units) {
		return
	}
	b.units[unit] = t
}

// SetSampler applies s to the texture on unit 0.
func (b *Backend) SetSampler(s gputypes.SamplerDescriptor) {
	if tex := b.textures[b.units[0]]; tex != nil {
		tex.Sampler = s
	}
}

// Texture returns the storage behind handle t.
func (b *Backend) Texture(t gpu.Handle) (*Texture, bool) {
	tex, ok := b.textures[t]
	return tex, ok
}

// CreateRenderTarget allocates a framebuffer whose color buffer is
// sampleable as the returned texture.
func (b *Backend) CreateRenderTarget(width, height int) (gpu.RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return gpu.RenderTarget{}, fmt.Errorf("raster: render target %dx%d", width, height)
	}
	fb := NewFrameBuffer(width, height)
	rt := gpu.RenderTarget{Framebuffer: b.alloc(), Texture: b.alloc(), Width: width, Height: height}
	b.textures[rt.Texture] = &Texture{Width: width, Height: height, Pix: fb.Color}
	b.targets[rt.Framebuffer] = renderTarget{fb: fb, texture: rt.Texture}
	b.log.Debug("render target created", "framebuffer", rt.Framebuffer, "width", width, "height", height)
	return rt, nil
}

func (b *Backend) DeleteRenderTarget(rt gpu.RenderTarget) {
	if b.framebuffer == rt.Framebuffer {
		b.framebuffer = 0
	}
	delete(b.targets, rt.Framebuffer)
	b.DeleteTexture(rt.Texture)
}

func (b *Backend) BindFramebuffer(fb gpu.Handle) {
	b.framebuffer = fb
}

func (b *Backend) bound() *FrameBuffer {
	if rt, ok := b.targets[b.framebuffer]; ok {
		return rt.fb
	}
	return b.screen
}

// ReadPixels copies framebuffer fb (0 for the default one). Rows are
// bottom-up as in window coordinates.
func (b *Backend) ReadPixels(fb gpu.Handle) (*image.NRGBA, error) {
	if fb == 0 {
		return b.screen.Image(), nil
	}
	rt, ok := b.targets[fb]
	if !ok {
		return nil, fmt.Errorf("raster: read pixels: no framebuffer %d", fb)
	}
	return rt.fb.Image(), nil
}

func (b *Backend) Viewport() gpu.Rect     { return b.viewport }
func (b *Backend) SetViewport(r gpu.Rect) { b.viewport = r }

func (b *Backend) Clear(c gputypes.Color) {
	b.bound().Clear(c)
}

func (b *Backend) SetCullMode(m gputypes.CullMode) { b.cull = m }

func (b *Backend) SetBlend(bs *gputypes.BlendState) {
	if bs != nil {
		cp := *bs
		bs = &cp
	}
	b.blend = bs
}

func (b *Backend) SetDepthWrite(enabled bool) { b.depthWrite = enabled }

// DrawIndexed runs the current program over count uint16 indices.
// Triangle lists and strips are supported; other topologies draw nothing.
func (b *Backend) DrawIndexed(topology gputypes.PrimitiveTopology, indices gpu.Handle, count int) {
	if b.current == nil {
		return
	}
	raw := b.buffers[indices]
	if count*2 > len(raw) {
		count = len(raw) / 2
	}
	idx := make([]uint16, count)
	for i := range idx {
		idx[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	b.stats.Draws++

	k := b.current.kernel
	nattr := len(k.Attributes())
	attrs := make([]mathutil.Vec4, nattr)
	shaded := make(map[uint16]*clipVertex, len(idx))
	vertex := func(i uint16) *clipVertex {
		if cv, ok := shaded[i]; ok {
			return cv
		}
		for loc := range attrs {
			attrs[loc] = defaultAttrib
			if loc < maxAttribs && b.attribs[loc].enabled {
				s := b.attribs[loc]
				attrs[loc] = fetchAttrib(b.buffers[s.buffer], s.layout, int(i))
			}
		}
		pos, v := k.Vertex(b.current.uniforms, attrs)
		cv := &clipVertex{pos: pos, v: v}
		shaded[i] = cv
		return cv
	}

	p := &pipeline{
		fb:         b.bound(),
		viewport:   b.viewport,
		cull:       b.cull,
		blend:      b.blend,
		depthWrite: b.depthWrite,
		kernel:     k,
		uniforms:   b.current.uniforms,
		stats:      &b.stats,
	}
	if tex := b.textures[b.units[0]]; tex != nil {
		p.sampler = tex
	}

	switch topology {
	case gputypes.PrimitiveTopologyTriangleList:
		for i := 0; i+2 < len(idx); i += 3 {
			p.drawTriangle(vertex(idx[i]), vertex(idx[i+1]), vertex(idx[i+2]))
		}
	case gputypes.PrimitiveTopologyTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				p.drawTriangle(vertex(idx[i]), vertex(idx[i+1]), vertex(idx[i+2]))
			} else {
				p.drawTriangle(vertex(idx[i+1]), vertex(idx[i]), vertex(idx[i+2]))
			}
		}
	default:
		b.log.Debug("topology not rasterized", "topology", topology)
	}
}

// uniformStore holds one program's uniform values by location.
type uniformStore []any

func (u uniformStore) get(loc int) any {
	if loc < 0 || loc >= len(u) {
		return nil
	}
	return u[loc]
}

func (u uniformStore) Int(loc int) int32 {
	v, _ := u.get(loc).(int32)
	return v
}

func (u uniformStore) Float(loc int) float32 {
	v, _ := u.get(loc).(float32)
	return v
}

func (u uniformStore) Vec3(loc int) mathutil.Vec3 {
	v, _ := u.get(loc).(mathutil.Vec3)
	return v
}

func (u uniformStore) Mat4(loc int) mathutil.Mat4 {
	v, _ := u.get(loc).(mathutil.Mat4)
	return v
}

func (u uniformStore) Mat4Array(loc int) []mathutil.Mat4 {
	v, _ := u.get(loc).([]mathutil.Mat4)
	return v
}
