// Package cache memoizes analytical query results. Keys are
// (source identity, exact query text), so a replaced or modified source
// file can never serve stale rows. Losing the cache is always safe; it
// only costs recomputation.
package cache

import "sync"

// Results is an in-memory result cache, safe for concurrent use.
type Results struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewResults creates an empty cache.
func NewResults() *Results {
	return &Results{entries: make(map[string]any)}
}

// Get returns the cached value for key, if present. Cached values are
// treated as immutable by every caller; no copy is made.
func (c *Results) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key, replacing any previous entry.
func (c *Results) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops every entry. Called when the active source changes,
// since entries keyed by the old identity would otherwise pile up.
func (c *Results) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}

// Len reports the number of cached results.
func (c *Results) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
