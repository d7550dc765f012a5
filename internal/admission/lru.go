package admission

// lruCache is a bounded LRU map of rate-limit entries. It is not safe for
// concurrent use; RateLimiter guards it with its own mutex.
type lruCache struct {
	maxEntries int
	entries    map[string]*node
	head       *node // most recently used
	tail       *node // least recently used
}

type node struct {
	key   string
	value *rateEntry
	prev  *node
	next  *node
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*node),
	}
}

func (c *lruCache) len() int { return len(c.entries) }

func (c *lruCache) get(key string) (*rateEntry, bool) {
	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(n)
	return n.value, true
}

func (c *lruCache) put(key string, value *rateEntry) {
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}

	n := &node{key: key, value: value}
	c.entries[key] = n
	c.addToFront(n)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evict(c.tail)
	}
}

// removeIf deletes every entry for which drop returns true and reports how
// many were removed.
func (c *lruCache) removeIf(drop func(*rateEntry) bool) int {
	removed := 0
	for n := c.tail; n != nil; {
		prev := n.prev
		if drop(n.value) {
			c.evict(n)
			removed++
		}
		n = prev
	}
	return removed
}

func (c *lruCache) moveToFront(n *node) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *lruCache) addToFront(n *node) {
	n.next = c.head
	n.prev = nil
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *lruCache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
}

func (c *lruCache) evict(n *node) {
	if n == nil {
		return
	}
	delete(c.entries, n.key)
	c.unlink(n)
}
