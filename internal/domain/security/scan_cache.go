package security

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// scanEntry is a doubly-linked list node for the LRU scan cache.
type scanEntry struct {
	key     uint64
	pattern string
	prev    *scanEntry
	next    *scanEntry
}

// ScanCache provides bounded LRU caching for injection scan results.
// The pattern scan is pure in the candidate, so the cache stores only
// the matched pattern name; violations are materialized fresh per call
// to keep their IDs and timestamps unique.
// Thread-safe with Mutex (both Get and Put mutate LRU order).
type ScanCache struct {
	mu      sync.Mutex
	entries map[uint64]*scanEntry
	head    *scanEntry // most recently used
	tail    *scanEntry // least recently used
	maxSize int
}

// DefaultScanCacheSize bounds the cache when no size is configured.
const DefaultScanCacheSize = 1024

// NewScanCache creates an LRU cache with the given max size.
func NewScanCache(maxSize int) *ScanCache {
	if maxSize <= 0 {
		maxSize = DefaultScanCacheSize
	}
	return &ScanCache{
		entries: make(map[uint64]*scanEntry, maxSize),
		maxSize: maxSize,
	}
}

// Key hashes a candidate query for cache lookup.
func (c *ScanCache) Key(candidate string) uint64 {
	return xxhash.Sum64String(candidate)
}

// Get retrieves a cached scan result. Returns (pattern, true) on hit.
// An empty pattern with ok=true means the candidate scanned clean.
func (c *ScanCache) Get(key uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.moveToHeadLocked(e)
		return e.pattern, true
	}
	return "", false
}

// Put stores a scan result. At capacity, the least recently used entry
// is evicted.
func (c *ScanCache) Put(key uint64, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.pattern = pattern
		c.moveToHeadLocked(e)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictTailLocked()
	}

	e := &scanEntry{key: key, pattern: pattern}
	c.entries[key] = e
	c.pushHeadLocked(e)
}

// Size returns the current cache size.
func (c *ScanCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ScanCache) pushHeadLocked(e *scanEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *ScanCache) moveToHeadLocked(e *scanEntry) {
	if c.head == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	c.pushHeadLocked(e)
}

func (c *ScanCache) evictTailLocked() {
	if c.tail == nil {
		return
	}
	evicted := c.tail
	delete(c.entries, evicted.key)
	c.tail = evicted.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
}
