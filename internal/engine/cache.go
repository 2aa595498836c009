package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache metrics — atomic counters for thread-safe access.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// Cache is an in-memory TTL memoization cache with single-flight semantics:
// for a given key, at most one computation runs at a time and concurrent
// callers share its result. TTL is supplied per call, so one cache serves
// producers with different lifetimes. Expiry is lazy, checked on access;
// there is no background sweeper.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	sf         singleflight.Group
	maxEntries int
}

type cacheEntry struct {
	value     any
	createdAt time.Time
}

// NewCache creates a cache holding at most maxEntries values.
// maxEntries <= 0 disables the capacity limit.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
	}
}

// CacheKey builds a deterministic cache key from parts. Part order matters:
// the first part names the producer, the rest are its arguments.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("iw:%x", hash[:12])
}

// GetOrCompute returns the cached value for key if it is younger than ttl,
// otherwise runs compute under single-flight and caches the result. A failed
// compute is not cached: all current waiters observe the same error and the
// next call retries fresh. A waiter whose context expires stops waiting, but
// the in-flight computation continues for the remaining waiters.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key, ttl); ok {
		cacheHits.Add(1)
		tv, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("cache: type mismatch for key %s: %T", key, v)
		}
		return tv, nil
	}
	cacheMisses.Add(1)

	// Detach the flight from this caller's deadline so one caller's timeout
	// cannot cancel the computation for the others.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		// A previous flight may have populated the entry while we queued.
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}
		v, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		tv, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache: type mismatch for key %s: %T", key, res.Val)
		}
		return tv, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// lookup returns the value for key if present and younger than ttl.
// Expired entries are removed on access.
func (c *Cache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if ttl <= 0 || time.Since(e.createdAt) >= ttl {
		c.mu.Lock()
		// Entry may have been refreshed since the read lock was dropped.
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	c.entries[key] = &cacheEntry{value: v, createdAt: time.Now()}
}

// evictLocked removes oldest entries until the cache is under its capacity.
// Caller holds c.mu.
func (c *Cache) evictLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.createdAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.createdAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStats returns the process-wide cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
