package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	hash string
	seen time.Time
}

// Cache remembers recently indexed content hashes so redelivered or
// re-crawled documents skip the store round trip. Entries expire after ttl;
// the oldest entry goes first once capacity is reached.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// IsSeen reports whether hash was marked inside the ttl window.
func (c *Cache) IsSeen(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[hash]
	if !ok {
		return false
	}
	return c.now().Sub(el.Value.(*entry).seen) <= c.ttl
}

// MarkSeen records hash as indexed now.
func (c *Cache) MarkSeen(hash string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[hash]; ok {
		el.Value.(*entry).seen = now
		c.order.MoveToBack(el)
	} else {
		c.items[hash] = c.order.PushBack(&entry{hash: hash, seen: now})
	}
	c.evict(now)
}

// Len returns the number of tracked hashes, expired ones included until the
// next MarkSeen.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)
	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		e := front.Value.(*entry)
		if c.order.Len() <= c.capacity && !e.seen.Before(cutoff) {
			return
		}
		c.order.Remove(front)
		delete(c.items, e.hash)
	}
}
