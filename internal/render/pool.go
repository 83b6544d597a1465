package render

import (
	"fmt"
	"log/slog"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
)

// Slot names one owned render target: the faceline, one expression mask
// or the offscreen frame.
type Slot int

// Mask slots are MaskSlot(e).
const (
	SlotFaceline Slot = -1
	SlotFrame    Slot = -2
)

// MaskSlot returns the slot holding expression e's mask.
func MaskSlot(e evaluator.Expression) Slot { return Slot(e) }

func (s Slot) String() string {
	switch s {
	case SlotFaceline:
		return "faceline"
	case SlotFrame:
		return "frame"
	}
	return "mask/" + evaluator.Expression(s).String()
}

// Pool owns the per-semantic attribute buffers and the render targets.
// Buffer handles are stable for the pool's lifetime; each target slot
// holds at most one live target.
type Pool struct {
	b   gpu.Backend
	log *slog.Logger

	attribs [evaluator.AttributeCount]gpu.Handle
	boneIDs gpu.Handle
	weights gpu.Handle
	targets map[Slot]gpu.RenderTarget
}

// NewPool allocates one buffer per vertex semantic.
func NewPool(b gpu.Backend, log *slog.Logger) *Pool {
	p := &Pool{b: b, log: log, targets: make(map[Slot]gpu.RenderTarget)}
	for i := range p.attribs {
		p.attribs[i] = b.CreateBuffer()
	}
	p.boneIDs = b.CreateBuffer()
	p.weights = b.CreateBuffer()
	return p
}

// Upload re-uploads data into the semantic's buffer and returns it.
func (p *Pool) Upload(a evaluator.Attribute, data []byte) gpu.Handle {
	h := p.attribs[a]
	p.b.BufferData(h, data)
	return h
}

// UploadSkin re-uploads the bone index and weight streams.
func (p *Pool) UploadSkin(ids, weights []byte) (gpu.Handle, gpu.Handle) {
	p.b.BufferData(p.boneIDs, ids)
	p.b.BufferData(p.weights, weights)
	return p.boneIDs, p.weights
}

// CreateTarget allocates a target for slot, releasing the one it held.
func (p *Pool) CreateTarget(slot Slot, width, height int) (gpu.RenderTarget, error) {
	p.Release(slot)
	rt, err := p.b.CreateRenderTarget(width, height)
	if err != nil {
		return gpu.RenderTarget{}, fmt.Errorf("render: create %s target: %w", slot, err)
	}
	p.targets[slot] = rt
	p.log.Debug("render target created", "slot", slot, "width", width, "height", height)
	return rt, nil
}

// Release deletes the slot's target if it has one.
func (p *Pool) Release(slot Slot) {
	rt, ok := p.targets[slot]
	if !ok {
		return
	}
	p.b.DeleteRenderTarget(rt)
	delete(p.targets, slot)
	p.log.Debug("render target released", "slot", slot)
}

// ReleaseTargets deletes every render target.
func (p *Pool) ReleaseTargets() {
	for slot := range p.targets {
		p.Release(slot)
	}
}

// Target returns the live target for slot.
func (p *Pool) Target(slot Slot) (gpu.RenderTarget, bool) {
	rt, ok := p.targets[slot]
	return rt, ok
}

// Targets reports how many targets are alive.
func (p *Pool) Targets() int { return len(p.targets) }

// Close releases every target and buffer.
func (p *Pool) Close() {
	p.ReleaseTargets()
	for i, h := range p.attribs {
		p.b.DeleteBuffer(h)
		p.attribs[i] = 0
	}
	p.b.DeleteBuffer(p.boneIDs)
	p.b.DeleteBuffer(p.weights)
	p.boneIDs, p.weights = 0, 0
}
