package texture

import (
	"image"
	"log/slog"
	"sync"
)

// Resolver resolves a decal name to a decoded image, or nil.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache is a concurrency-safe decal override cache. Batch workers share
// one Cache while each owns its own render context.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index
	log   *slog.Logger
}

// NewCache creates a cache backed by index.
func NewCache(index *Index, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
		log:   log,
	}
}

// Resolve loads and caches an override by name. Failed loads are cached as
// nil so a broken file is only reported once.
func (c *Cache) Resolve(name string) *image.NRGBA {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil
	}

	c.mu.RLock()
	if img, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return img
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		c.log.Warn("decal override unreadable", "name", name, "err", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, exists := c.items[path]; exists {
		return cached
	}
	c.items[path] = img
	return img
}
