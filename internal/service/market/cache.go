package market

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

type cacheKey struct {
	symbol string
	rng    market.Range
}

type cacheEntry struct {
	expiresAt time.Time
	ticker    market.Ticker
}

// Cached serves repeated fetches of the same symbol and range from memory for TTL.
// Errors are never cached.
type Cached struct {
	F        Fetcher
	TTL      time.Duration
	MaxItems int

	now   func() time.Time
	mu    sync.RWMutex
	items map[cacheKey]cacheEntry
}

// NewCached wraps f. A non-positive ttl disables caching.
func NewCached(f Fetcher, ttl time.Duration, maxItems int) *Cached {
	return &Cached{
		F:        f,
		TTL:      ttl,
		MaxItems: maxItems,
		now:      time.Now,
		items:    make(map[cacheKey]cacheEntry),
	}
}

func (c *Cached) Name() string { return c.F.Name() }

// Fetch returns a cached ticker when still fresh, otherwise asks the wrapped fetcher.
func (c *Cached) Fetch(ctx context.Context, symbol string, rng market.Range) (*market.Ticker, error) {
	if c.TTL <= 0 {
		return c.F.Fetch(ctx, symbol, rng)
	}

	key := cacheKey{symbol: symbol, rng: rng}
	now := c.now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		tk := e.ticker
		return &tk, nil
	}

	tk, err := c.F.Fetch(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{expiresAt: now.Add(c.TTL), ticker: *tk}
	c.evictLocked(now)
	c.mu.Unlock()

	return tk, nil
}

// evictLocked keeps the cache under MaxItems: expired entries first, then arbitrary ones.
func (c *Cached) evictLocked(now time.Time) {
	if c.MaxItems <= 0 || len(c.items) <= c.MaxItems {
		return
	}
	for k, v := range c.items {
		if !now.Before(v.expiresAt) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.MaxItems {
			break
		}
		delete(c.items, k)
	}
}
