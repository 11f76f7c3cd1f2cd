package batch

import (
	"sync"

	"github.com/bookdata/booktone-api/internal/domain"
)

// StatusCache is the in-memory side of the dual-source status tracker:
// a concurrent map from batch ID to live progress, authoritative only
// while that batch is actively processing in this process. Entries are
// created and mutated exclusively by the worker; status queries receive
// snapshots and never touch the stored entry. The entry is removed the
// instant the batch reaches a terminal state, after which the durable
// batch job record is the sole source of truth.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.BatchProgress
}

// NewStatusCache creates an empty status cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{
		entries: make(map[string]*domain.BatchProgress),
	}
}

// Set stores a copy of the given progress as the live entry for its
// batch ID.
func (c *StatusCache) Set(progress domain.BatchProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[progress.BatchID] = &progress
}

// Get returns a snapshot of the live entry for the batch ID, if present.
func (c *StatusCache) Get(batchID string) (domain.BatchProgress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[batchID]
	if !ok {
		return domain.BatchProgress{}, false
	}
	return *entry, true
}

// Update applies fn to the live entry for the batch ID while holding the
// cache lock. It is a no-op if no entry exists.
func (c *StatusCache) Update(batchID string, fn func(*domain.BatchProgress)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[batchID]; ok {
		fn(entry)
	}
}

// Remove deletes the live entry for the batch ID.
func (c *StatusCache) Remove(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, batchID)
}

// Len returns the number of live entries.
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
