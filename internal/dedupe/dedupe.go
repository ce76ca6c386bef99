// ABOUTME: Thread-safe TTL cache for suppressing webhook redeliveries
// ABOUTME: Keyed by provider message SID, size-bounded with lazy eviction

package dedupe

import (
	"sync"
	"time"
)

// DefaultTTL covers the window in which SMS providers retry webhook
// delivery after a slow or failed acknowledgement.
const DefaultTTL = 10 * time.Minute

// DefaultMaxSize bounds memory under sustained traffic.
const DefaultMaxSize = 10000

type entry struct {
	sid  string
	seen time.Time
}

// Cache tracks recently seen provider message SIDs so a redelivered
// webhook is dropped before it re-enters the pipeline. Expired and
// excess entries are evicted lazily on insert; no background
// goroutine is needed.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	queue   []entry // insertion order, oldest first
	ttl     time.Duration
	maxSize int
}

// New creates a cache with the given redelivery window and size
// bound. Non-positive values select the defaults.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// CheckAndMark atomically reports whether sid was already seen within
// the window, marking it if not. Returns true for a redelivery.
func (c *Cache) CheckAndMark(sid string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seen, ok := c.seen[sid]; ok && now.Sub(seen) < c.ttl {
		return true
	}

	c.seen[sid] = now
	c.queue = append(c.queue, entry{sid: sid, seen: now})
	c.evict(now)
	return false
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(time.Now())
	return len(c.seen)
}

// evict drops expired entries and, if still over capacity, the
// oldest ones. Must be called with mu held.
func (c *Cache) evict(now time.Time) {
	i := 0
	for ; i < len(c.queue); i++ {
		e := c.queue[i]
		expired := now.Sub(e.seen) >= c.ttl
		over := len(c.queue)-i > c.maxSize
		if !expired && !over {
			break
		}
		// Only delete from the map if this queue entry is the live
		// one; the sid may have been re-marked with a newer time.
		if seen, ok := c.seen[e.sid]; ok && seen.Equal(e.seen) {
			delete(c.seen, e.sid)
		}
	}
	c.queue = c.queue[i:]
}
