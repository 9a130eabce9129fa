package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats are cumulative counters of an LRU.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// LRU is a size-bounded cache whose entries also expire after a TTL.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[K]*list.Element
	order   *list.List
	now     func() time.Time
	stats   Stats
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewLRU returns a cache holding at most maxSize entries for ttl each.
// A maxSize below 1 is treated as 1.
func NewLRU[K comparable, V any](maxSize int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{
		maxSize: max(maxSize, 1),
		ttl:     ttl,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := elem.Value.(*entry[K, V])
	if c.now().After(e.expiresAt) {
		c.remove(elem)
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.stats.Hits++
	return e.value, true
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[K, V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(e)

	for c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
}

func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// DeleteFunc removes every entry whose key matches and returns how many
// were removed.
func (c *LRU[K, V]) DeleteFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if match(elem.Value.(*entry[K, V]).key) {
			c.remove(elem)
			n++
		}
		elem = next
	}
	return n
}

// CleanExpired drops expired entries and returns how many were removed.
func (c *LRU[K, V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry[K, V]).expiresAt) {
			c.remove(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.items)
	return s
}

func (c *LRU[K, V]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[K, V]).key)
	c.order.Remove(elem)
}
