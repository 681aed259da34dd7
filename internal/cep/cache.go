package cep

import (
	"sync"
	"time"
)

type memoryEntry struct {
	result    Result
	expiresAt time.Time
}

// MemoryCache is the in-process tier of the resolution cache. It is built
// once at startup and injected; Clear exists so tests and admin tooling can
// reset it without restarting.
type MemoryCache struct {
	mtx     sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache builds an empty cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached result. Expired entries are treated as absent.
func (c *MemoryCache) Get(code string) (*Result, bool) {
	c.mtx.RLock()
	entry, ok := c.entries[code]
	c.mtx.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mtx.Lock()
		delete(c.entries, code)
		c.mtx.Unlock()
		return nil, false
	}
	result := entry.result
	return &result, true
}

// Put stores a result under the normalized code.
func (c *MemoryCache) Put(code string, result Result) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.entries[code] = memoryEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Len reports the current entry count.
func (c *MemoryCache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.entries)
}
