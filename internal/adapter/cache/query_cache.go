package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"mdindex/internal/adapter/metrics"
)

// QueryCache memoizes query results until the index changes. Entries carry
// the index generation they were computed at; Invalidate bumps the
// generation so results computed concurrently with a scan are never served
// afterwards. Cached values are shared and must not be modified.
type QueryCache struct {
	mu       sync.RWMutex
	entries  *lru.Cache[string, cacheEntry]
	ttl      time.Duration
	indexGen uint64
	group    singleflight.Group
	metrics  *metrics.Metrics
}

type cacheEntry struct {
	value     any
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	entries, err := lru.New[string, cacheEntry](maxSize)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &QueryCache{entries: entries, ttl: ttl}
}

// SetMetrics enables hit and miss counting.
func (c *QueryCache) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

func (c *QueryCache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexGen
}

func (c *QueryCache) Get(key string) (any, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if entry.indexGen != c.generation() || time.Since(entry.timestamp) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *QueryCache) put(key string, gen uint64, value any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if gen != c.indexGen {
		return
	}
	c.entries.Add(key, cacheEntry{value: value, timestamp: time.Now(), indexGen: gen})
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	c.indexGen++
	c.mu.Unlock()
	c.entries.Purge()
}

func (c *QueryCache) Size() int {
	return c.entries.Len()
}

// GetOrCompute returns the cached value for key or computes it once, even
// when several callers ask at the same time. The bool reports a cache hit.
func GetOrCompute[T any](c *QueryCache, key string, compute func() (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.metrics.CacheHit()
			return typed, true, nil
		}
	}
	c.metrics.CacheMiss()

	gen := c.generation()
	v, err, _ := c.group.Do(fmt.Sprintf("%d:%s", gen, key), func() (interface{}, error) {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		c.put(key, gen, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}
