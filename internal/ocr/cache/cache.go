// Package cache stores recent extraction results keyed by frame fingerprint
package cache

import (
	"github.com/screenlens/screenlens/internal/fingerprint"
)

// DefaultCapacity bounds the cache when no size is configured.
const DefaultCapacity = 50

// Cache is a fixed-capacity fingerprint-to-text store with strict FIFO
// eviction. Eviction follows insertion order, never access order: hit
// rate is secondary to O(1) eviction at high arrival rates. Not
// goroutine-safe; accessed only from the pipeline loop.
type Cache struct {
	capacity int
	entries  map[fingerprint.Fingerprint]string
	order    []fingerprint.Fingerprint
}

// New creates a cache bounded at capacity entries.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[fingerprint.Fingerprint]string, capacity),
	}
}

// Get returns the cached text for fp. Lookups never change eviction order.
func (c *Cache) Get(fp fingerprint.Fingerprint) (string, bool) {
	text, ok := c.entries[fp]
	return text, ok
}

// Put stores text under fp. Re-inserting an existing key updates the text
// in place and keeps its original insertion position. Inserting a new key
// at capacity evicts the single oldest entry.
func (c *Cache) Put(fp fingerprint.Fingerprint, text string) {
	if _, exists := c.entries[fp]; exists {
		c.entries[fp] = text
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[fp] = text
	c.order = append(c.order, fp)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Capacity returns the configured bound.
func (c *Cache) Capacity() int { return c.capacity }
