// Package translate orchestrates batch translation of text blocks across an
// online web endpoint and an on-device session, with a shared bounded cache.
package translate

import (
	"sync"

	"github.com/overlens-project/overlens/settings"
)

// cacheLimit bounds the number of memoized translations. When the limit is
// reached the whole map is dropped before the next insert; simpler than LRU
// and still deterministically bounded.
const cacheLimit = 500

type cacheKey struct {
	text   string
	target string
	mode   settings.Mode
}

// Cache memoizes translations keyed by (source text, target language,
// backend mode). The mode tag keeps a backend switch from serving stale
// cross-backend translations. A single coarse lock guards the whole map;
// accesses are rare relative to translation latency.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]string
}

// NewCache returns an empty translation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]string)}
}

// Get returns the cached translation for the key, if present.
func (c *Cache) Get(text, target string, mode settings.Mode) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	translated, ok := c.entries[cacheKey{text: text, target: target, mode: mode}]
	return translated, ok
}

// Put stores a translation, evicting the entire cache first if it is full.
func (c *Cache) Put(text, target string, mode settings.Mode, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= cacheLimit {
		c.entries = make(map[cacheKey]string)
	}
	c.entries[cacheKey{text: text, target: target, mode: mode}] = translated
}

// Clear drops every cached translation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]string)
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
