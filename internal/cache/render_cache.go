package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/bbernstein/shiptracker/internal/display"
	lru "github.com/hashicorp/golang-lru/v2"
)

// RenderCache memoises encoded images for a given cache entry so repeated polls inside
// the freshness window skip re-rendering.
type RenderCache struct {
	lru    *lru.Cache[string, display.RenderResult]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewRenderCache(size int) (*RenderCache, error) {
	if size <= 0 {
		size = 1
	}
	lruCache, err := lru.New[string, display.RenderResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}
	return &RenderCache{lru: lruCache}, nil
}

// RenderKey identifies the image produced for entry in the given variant ("data", "stale:network", ...).
func RenderKey(entry Entry, variant string) string {
	if entry.Record == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%s", entry.Record.VesselID, entry.FetchedAt.UnixNano(), variant)
}

func (c *RenderCache) Get(key string) (display.RenderResult, bool) {
	if key == "" {
		return display.RenderResult{}, false
	}
	result, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

func (c *RenderCache) Add(key string, result display.RenderResult) {
	if key == "" {
		return
	}
	c.lru.Add(key, result)
}

// GetCacheStats returns statistics about cache hits and misses
func (c *RenderCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"render_hits":   c.hits.Load(),
		"render_misses": c.misses.Load(),
		"render_size":   uint64(c.lru.Len()),
	}
}
