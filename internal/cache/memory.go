package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is an LRU cache bounded by total byte size.
type Memory struct {
	capacity int64
	size     int64

	items map[string]*list.Element
	order *list.List // front is most recently used

	mu    sync.Mutex
	stats Stats
}

type memoryEntry struct {
	key   string
	value []byte
}

// NewMemory creates a memory cache holding up to capacity bytes.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*memoryEntry).value, true
}

// Put stores value under key, evicting least recently used entries to fit.
func (c *Memory) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(value))
	if n > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	for c.size+n > c.capacity && c.order.Len() > 0 {
		c.removeElement(c.order.Back())
		c.stats.Evictions++
		c.stats.LastEvict = time.Now()
	}

	c.items[key] = c.order.PushFront(&memoryEntry{key: key, value: value})
	c.size += n
	return nil
}

// Delete removes key if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Contains reports whether key is cached without touching recency.
func (c *Memory) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Stats returns cache statistics.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Capacity = c.capacity
	stats.Size = c.size
	stats.Items = int64(len(c.items))
	return stats
}

// removeElement must be called with the lock held.
func (c *Memory) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*memoryEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.value))
}
