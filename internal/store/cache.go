// Package store provides a bounded in-process cache for resolution results,
// using a Bloom filter as an admission gate in front of an LRU.
package store

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"tunelink/internal/core"
)

// ResultCache caches final resolution results keyed by (url, preference).
// A key is only admitted to the LRU on its second occurrence: the Bloom
// filter absorbs one-hit wonders so hot links don't get evicted by a stream
// of unique ones. Entries expire after a TTL so upstream catalog changes
// eventually show through.
type ResultCache struct {
	mutex sync.Mutex
	seen  *bloom.BloomFilter
	lru   *lru.Cache[string, cacheEntry]
	ttl   time.Duration

	capacity          int
	falsePositiveRate float64
	admitted          int
}

type cacheEntry struct {
	result    core.Result
	expiresAt time.Time
}

// NewResultCache creates a cache holding up to capacity results with the
// given TTL.
func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	const falsePositiveRate = 0.001

	lruCache, _ := lru.New[string, cacheEntry](capacity)

	return &ResultCache{
		seen:              bloom.NewWithEstimates(uint(capacity)*2, falsePositiveRate),
		lru:               lruCache,
		ttl:               ttl,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
}

// Get returns the cached result for key, if present and not expired.
func (c *ResultCache) Get(key string) (core.Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		return core.Result{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return core.Result{}, false
	}
	return entry.result, true
}

// Put records a result for key. The first occurrence of a key only marks the
// Bloom filter; the entry is stored from the second occurrence on.
func (c *ResultCache) Put(key string, result core.Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.seen.TestString(key) {
		c.seen.AddString(key)
		return
	}

	c.lru.Add(key, cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.admitted++

	// The filter can't forget; rebuild it once it has absorbed far more
	// keys than the cache can hold, to keep the false positive rate honest.
	if c.admitted > c.capacity*4 {
		c.seen = bloom.NewWithEstimates(uint(c.capacity)*2, c.falsePositiveRate)
		c.admitted = 0
	}
}

// Len returns the number of cached entries, counting expired ones not yet
// evicted.
func (c *ResultCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lru.Len()
}

// Purge drops every cached entry and resets the admission filter.
func (c *ResultCache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lru.Purge()
	c.seen = bloom.NewWithEstimates(uint(c.capacity)*2, c.falsePositiveRate)
	c.admitted = 0
}
