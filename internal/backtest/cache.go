package backtest

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// CacheKey hashes everything that determines a ranking or sweep result.
// The ticker order does not matter.
func CacheKey(kind, list string, tickers []string, p Params, values []float64) (uint64, error) {
	sorted := append([]string(nil), tickers...)
	sort.Strings(sorted)

	setup := ""
	if p.Setup != nil {
		setup = p.Setup.Name()
	}
	payload, err := json.Marshal(struct {
		Kind    string    `json:"kind"`
		List    string    `json:"list"`
		Tickers []string  `json:"tickers"`
		Name    string    `json:"name"`
		Params  Params    `json:"params"`
		Values  []float64 `json:"values"`
	}{kind, list, sorted, setup, p, values})
	if err != nil {
		return 0, fmt.Errorf("cache key: %w", err)
	}
	return xxh3.Hash(payload), nil
}

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// ResultCache keeps computed results in memory for a while. It is owned by
// the caller that wants reuse; the engine itself never caches.
type ResultCache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[uint64]cacheEntry[T]
	now     func() time.Time
}

// NewResultCache creates a cache whose entries live for ttl (0: forever)
func NewResultCache[T any](ttl time.Duration) *ResultCache[T] {
	return &ResultCache[T]{
		ttl:     ttl,
		entries: make(map[uint64]cacheEntry[T]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and fresh
func (c *ResultCache[T]) Get(key uint64) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && c.now().After(e.expires)) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put stores value under key
func (c *ResultCache[T]) Put(key uint64, value T) {
	e := cacheEntry[T]{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included
func (c *ResultCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry
func (c *ResultCache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[uint64]cacheEntry[T])
	c.mu.Unlock()
}
