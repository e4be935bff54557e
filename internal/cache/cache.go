// Package cache provides the in-memory search result cache: TTL expiry with
// LRU eviction under a fixed capacity.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// Cache is a bounded TTL+LRU cache safe for concurrent use. Values are
// treated as immutable byte slices; callers must not mutate what they Get.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	ll         *list.List // front = most recently used
	entries    map[string]*list.Element

	cacheTotal *prometheus.CounterVec // label "result": hit/miss, may be nil
	now        func() time.Time
}

// New creates a cache with the given TTL and capacity.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed
// explicitly; nil disables counting.
func New(ttl time.Duration, maxEntries int, cacheTotal *prometheus.CounterVec) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		cacheTotal: cacheTotal,
		now:        time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the value for key, or false when absent or expired.
// Expired entries are evicted lazily on access.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.count("miss")
		return nil, false
	}

	e := el.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeElement(el)
		c.count("miss")
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.count("hit")
	return e.value, true
}

// Set stores value under key, overwriting any existing entry and resetting
// its expiry. When capacity is reached, the least-recently-used
// entry is evicted first.
func (c *Cache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	if c.maxEntries > 0 && c.ll.Len() >= c.maxEntries {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	el := c.ll.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.entries[key] = el
}

// Clear drops every entry. Called after each successful write so reads
// never observe stale results.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.entries = make(map[string]*list.Element)
}

// Len returns the number of live entries, counting not-yet-evicted expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.entries, e.key)
}

func (c *Cache) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
