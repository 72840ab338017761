package tools

import "sync"

// Entry is one cached resolution result.
type Entry struct {
	Location Location
	Err      error
}

// Cache remembers resolution results, failures included, for the lifetime
// of a Resolver.
type Cache struct {
	data map[ID]Entry
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[ID]Entry),
	}
}

// Get retrieves the cached result for id.
func (c *Cache) Get(id ID) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e, ok
}

// Set stores a result unless one is already present, and returns the entry
// that ends up cached.
func (c *Cache) Set(id ID, e Entry) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.data[id]; ok {
		return prev
	}
	c.data[id] = e
	return e
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
