// Package procedural is a self-contained avatar evaluator. It decodes
// version 3 store data records and synthesizes a stylised head, faceline
// decals and per-expression masks, reporting everything through the
// evaluator callback contract.
package procedural

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/texture"
)

// resourceMagic opens every shared resource blob.
var resourceMagic = []byte("FFRA")

// minResourceSize covers the magic and version words.
const minResourceSize = 8

// DefaultResolution is used when a ModelDesc leaves Resolution unset.
const DefaultResolution = 512

// Options carry collaborators that are not part of the evaluator contract.
type Options struct {
	// Decals, when set, supplies images that replace generated decals by
	// name ("eye_open", "mouth_smile", "glass", ...).
	Decals texture.Resolver
	Logger *slog.Logger
}

// Library is an initialized evaluator.
type Library struct {
	cfg    evaluator.Config
	opts   Options
	log    *slog.Logger
	size   int
	closed bool
}

var _ evaluator.Library = (*Library)(nil)

// NewLibrary validates the resource blob and applies cfg.
func NewLibrary(resource []byte, cfg evaluator.Config, opts Options) (*Library, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(resource) < minResourceSize || !bytes.Equal(resource[:len(resourceMagic)], resourceMagic) {
		return nil, fmt.Errorf("%w: bad header", evaluator.ErrResourceRejected)
	}
	if cfg.Textures == nil {
		opts.Logger.Warn("no texture callback; decals and glasses disabled")
	}
	opts.Logger.Debug("evaluator ready", "resource_bytes", len(resource), "flip_y", cfg.FlipY, "normal_snorm8", cfg.NormalSnorm8)
	return &Library{cfg: cfg, opts: opts, log: opts.Logger, size: len(resource)}, nil
}

var errClosed = errors.New("procedural: library closed")

// NewModel decodes desc.Data and builds the head geometry.
func (l *Library) NewModel(desc evaluator.ModelDesc) (evaluator.Model, error) {
	if l.closed {
		return nil, errClosed
	}
	d, err := ParseDescriptor(desc.Data)
	if err != nil {
		return nil, err
	}
	return newModel(l, d, desc), nil
}

// Close releases the library. Models already created stay valid.
func (l *Library) Close() {
	if !l.closed {
		l.log.Debug("evaluator closed")
	}
	l.closed = true
}
