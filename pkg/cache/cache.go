// Package cache memoizes pipeline artifacts in memory.
//
// Entries are keyed by content hashes of the input snapshot and the options
// that influence the result (see [Keyer]), so a hit is always safe to reuse.
// Nothing is persisted; a fresh process starts cold.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores opaque byte slices under string keys.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultSize is the entry capacity used when NewLRU gets a non-positive size.
const DefaultSize = 256

type entry struct {
	data      []byte
	expiresAt time.Time
}

// LRU is a size-bounded in-memory cache that evicts the least recently used
// entry when full. It is safe for concurrent use.
type LRU struct {
	mu    sync.Mutex
	items *lru.Cache[string, entry]
	now   func() time.Time
}

// NewLRU creates an LRU cache holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	items, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{items: items, now: time.Now}, nil
}

// Get retrieves a value. Expired entries are dropped and reported as misses.
func (c *LRU) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.items.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a copy of data.
func (c *LRU) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := entry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, e)
	return nil
}

// Delete removes a value; deleting a missing key is not an error.
func (c *LRU) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// evicted.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Close drops every entry.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
	return nil
}

var _ Cache = (*LRU)(nil)
