// Package cache is the in-process result cache for the search hot path:
// a fixed-capacity LRU with per-entry TTL. Eviction is deterministic (least
// recently used out first, expired entries dropped on access) and lookups
// never touch the network. Concurrent requests for the same key share one
// computation through singleflight.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
)

type entry struct {
	key      string
	value    any
	storedAt time.Time
}

// Cache is a thread-safe LRU with TTL expiry.
type Cache struct {
	capacity int
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	group singleflight.Group
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// New builds a cache from config. Metrics may be nil.
func New(cfg config.CacheConfig, m *metrics.Metrics) *Cache {
	return &Cache{
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		metrics:  m,
		now:      time.Now,
		ll:       list.New(),
		items:    make(map[string]*list.Element, cfg.Capacity),
	}
}

// Get returns the cached value for key if present and unexpired, promoting it
// to most recently used.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	ent := elem.Value.(*entry)
	if c.ttl > 0 && c.now().Sub(ent.storedAt) > c.ttl {
		c.removeLocked(elem, "ttl")
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	c.ll.MoveToFront(elem)
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return ent.value, true
}

// GetOrCompute returns the cached value for key, or runs compute exactly once
// across concurrent callers and caches its result. The bool reports a cache
// hit. Errors are not cached.
func (c *Cache) GetOrCompute(key string, compute func() (any, error)) (any, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the key while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

func (c *Cache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.storedAt = c.now()
		c.ll.MoveToFront(elem)
		return
	}
	for c.ll.Len() >= c.capacity {
		c.removeLocked(c.ll.Back(), "lru")
	}
	elem := c.ll.PushFront(&entry{key: key, value: value, storedAt: c.now()})
	c.items[key] = elem
}

func (c *Cache) removeLocked(elem *list.Element, reason string) {
	if elem == nil {
		return
	}
	ent := elem.Value.(*entry)
	c.ll.Remove(elem)
	delete(c.items, ent.key)
	c.evictions.Add(1)
	if c.metrics != nil {
		c.metrics.CacheEvictionsTotal.WithLabelValues(reason).Inc()
	}
}

// Invalidate drops every entry and returns how many were dropped. Counters
// are kept; the flush itself is not an eviction.
func (c *Cache) Invalidate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.ll.Len()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	return n
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats snapshots the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := c.ll.Len()
	c.mu.Unlock()
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
