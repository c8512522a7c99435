package storage

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"copart-organizer/models"
)

// LotCache keeps recently extracted lots for a short TTL so an add followed
// by a view, or two refreshes in quick succession, don't re-hit the source
// site.
type LotCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLotCache creates a cache holding up to a few thousand lots with the
// given TTL.
func NewLotCache(ttl time.Duration) (*LotCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000, // cost 1 per lot
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &LotCache{cache: c, ttl: ttl}, nil
}

// Get returns a copy of the cached lot, if present.
func (c *LotCache) Get(lotNumber string) (*models.Lot, bool) {
	v, ok := c.cache.Get(lotNumber)
	if !ok {
		return nil, false
	}
	lot, ok := v.(*models.Lot)
	if !ok {
		return nil, false
	}
	return lot.Clone(), true
}

// Set stores a copy of the lot under its lot number.
func (c *LotCache) Set(lot *models.Lot) {
	c.cache.SetWithTTL(lot.LotNumber, lot.Clone(), 1, c.ttl)
}

// Invalidate drops a lot from the cache, e.g. after an explicit refresh.
func (c *LotCache) Invalidate(lotNumber string) {
	c.cache.Del(lotNumber)
}

// Wait blocks until buffered writes are applied. Used in tests; production
// callers tolerate the cache's asynchronous admission.
func (c *LotCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache's internal resources.
func (c *LotCache) Close() {
	c.cache.Close()
}
