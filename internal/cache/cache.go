package cache

import (
	"sync"
	"time"

	"remitcompare/internal/quote"
)

// entry stores one aggregation pass for a request triple with its creation time.
type entry struct {
	createdAt        time.Time
	quotes           []quote.Quote
	containsFallback bool
}

// Snapshot is what a read returns: the quotes plus enough metadata for the
// consumer to decide whether to trust a cached low-confidence pass.
type Snapshot struct {
	Quotes           []quote.Quote
	CreatedAt        time.Time
	ContainsFallback bool
}

// Cache is a short-TTL store keyed by the exact request triple.
// Expiry is enforced at read time; a read past TTL behaves as a miss.
// Writes are last-write-wins, acceptable because entries are short-lived
// and re-derivable.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]entry
}

// DefaultTTL is the reference freshness window.
const DefaultTTL = 120 * time.Second

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now, items: make(map[string]entry)}
}

// Get returns a fresh snapshot for key, or ok=false on miss or expiry.
// The returned quote slice is a copy; callers may retag it freely.
func (c *Cache) Get(key string) (Snapshot, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || now.Sub(e.createdAt) >= c.ttl {
		return Snapshot{}, false
	}
	out := make([]quote.Quote, len(e.quotes))
	copy(out, e.quotes)
	return Snapshot{Quotes: out, CreatedAt: e.createdAt, ContainsFallback: e.containsFallback}, true
}

// Put stores quotes for key, overwriting any previous entry.
// Expired siblings are pruned opportunistically; no background sweep runs.
func (c *Cache) Put(key string, quotes []quote.Quote) {
	now := c.now()
	stored := make([]quote.Quote, len(quotes))
	copy(stored, quotes)
	var hasFallback bool
	for _, q := range stored {
		if q.Source == quote.SourceFallback {
			hasFallback = true
			break
		}
	}
	c.mu.Lock()
	for k, e := range c.items {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.items, k)
		}
	}
	c.items[key] = entry{createdAt: now, quotes: stored, containsFallback: hasFallback}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
