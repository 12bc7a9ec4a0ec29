package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteCacheFreshHit(t *testing.T) {
	c := NewQuoteCache(time.Minute)
	c.Put("BTC-USD", 43250)

	px, ok := c.Get("BTC-USD")
	assert.True(t, ok)
	assert.Equal(t, 43250.0, px)
}

func TestQuoteCacheMiss(t *testing.T) {
	c := NewQuoteCache(time.Minute)

	_, ok := c.Get("ETH-USD")
	assert.False(t, ok)
}

func TestQuoteCacheExpiry(t *testing.T) {
	c := NewQuoteCache(time.Minute)
	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Put("SOL-USD", 98.5)
	clock = clock.Add(61 * time.Second)

	_, ok := c.Get("SOL-USD")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
