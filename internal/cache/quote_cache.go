// Package cache holds a small TTL cache for market quotes so the stub
// backend does not hammer the upstream feed on every poll.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	price   float64
	fetched time.Time
}

// QuoteCache memoizes per-symbol spot prices for a fixed TTL.
type QuoteCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	quotes map[string]entry
}

// NewQuoteCache creates a cache with the given freshness window.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:    ttl,
		now:    time.Now,
		quotes: make(map[string]entry),
	}
}

// Get returns a cached price if it is still fresh.
func (c *QuoteCache) Get(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.quotes[symbol]
	if !ok || c.now().Sub(e.fetched) > c.ttl {
		return 0, false
	}
	return e.price, true
}

// Put stores a freshly fetched price.
func (c *QuoteCache) Put(symbol string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[symbol] = entry{price: price, fetched: c.now()}
}

// Len reports how many symbols are cached, fresh or stale.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}
