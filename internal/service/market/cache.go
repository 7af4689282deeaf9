package market

import (
	"sync"
	"time"

	"SignalWatch/internal/domain/models"
)

type entry struct {
	data      models.MarketData
	fetchedAt time.Time
	lastErr   error
	drop      float64
}

// Cache holds the last merged quote set. Every configured symbol is present from
// construction with a zero ticker, so readers never see a missing key.
type Cache struct {
	mu    sync.RWMutex
	index string
	e     entry
	now   func() time.Time
}

func NewCache(symbols []string, index string) *Cache {
	data := make(models.MarketData, len(symbols))
	for _, s := range symbols {
		data[s] = models.TickerData{}
	}
	return &Cache{index: index, e: entry{data: data}, now: time.Now}
}

// Snapshot returns a copy of the data and when it was last refreshed.
func (c *Cache) Snapshot() (models.MarketData, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.e.data.Clone(), c.e.fetchedAt
}

// Fresh reports whether the last successful fetch is younger than maxAge.
func (c *Cache) Fresh(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.e.fetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.e.fetchedAt) < maxAge
}

// Merge overlays fetched tickers onto a copy of the current data and swaps it in.
// An empty update keeps the previous data and timestamp.
func (c *Cache) Merge(update models.MarketData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.e.lastErr = nil
	if len(update) == 0 {
		return
	}
	next := c.e.data.Clone()
	for sym, t := range update {
		next[sym] = t
		if sym == c.index {
			c.e.drop = t.Change
		}
	}
	c.e.data = next
	c.e.fetchedAt = c.now()
}

// Fail records a fetch error. Cached data is left as is.
func (c *Cache) Fail(err error) {
	c.mu.Lock()
	c.e.lastErr = err
	c.mu.Unlock()
}

func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.e.lastErr
}

// CumulativeDrop is the last index change seen.
func (c *Cache) CumulativeDrop() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.e.drop
}
