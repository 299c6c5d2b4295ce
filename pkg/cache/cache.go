package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc fetches the payload for a key on a cache miss.
type LoaderFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	payload   interface{}
	fetchedAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Cache is an in-memory TTL cache. An entry is valid while
// now - fetchedAt < ttl; staleness is only checked at access time, there is
// no background sweep. Concurrent misses for the same key are collapsed into
// a single loader call.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	sf         singleflight.Group

	hits      uint64
	misses    uint64
	evictions uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the time source, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMaxEntries caps the cache size. When the cap is exceeded the entry
// with the oldest fetch time is dropped. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload and true when a valid entry exists. Stale entries
// are left in place, they are overwritten on the next successful load.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	ent, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expired(ent) {
		return nil, false
	}
	return ent.payload, true
}

// Set inserts or overwrites the entry for key.
func (c *Cache) Set(key string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{payload: payload, fetchedAt: c.now()}
}

// GetOrLoad returns the valid cached payload for key, or runs loader and
// stores its result. Loader errors are returned as-is and never cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader LoaderFunc) (interface{}, error) {
	if payload, ok := c.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return payload, nil
	}

	payload, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// A concurrent caller may have populated the entry while this
		// goroutine waited on the flight group.
		if payload, ok := c.Get(key); ok {
			return payload, nil
		}

		c.mu.Lock()
		c.misses++
		c.mu.Unlock()

		payload, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Delete removes the entry for key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, valid or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *Cache) expired(ent entry) bool {
	return c.now().Sub(ent.fetchedAt) >= c.ttl
}

// evictOldestLocked drops the entry with the oldest fetch time. The caller
// must hold the write lock.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, ent := range c.entries {
		if first || ent.fetchedAt.Before(oldest) {
			oldestKey = key
			oldest = ent.fetchedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}
