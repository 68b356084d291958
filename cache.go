package controlremo

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/tenntenn/natureremo"
)

// SignalCache keeps signal lists per appliance for a while so a long running
// bridge does not list signals on every command. A nil *SignalCache is a
// cache that never hits.
type SignalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewSignalCache returns a cache whose entries expire after ttl.
func NewSignalCache(ttl time.Duration) (*SignalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		// cost counts lists, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	return &SignalCache{cache: cache, ttl: ttl}, nil
}

func (c *SignalCache) Get(applianceID string) ([]*natureremo.Signal, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.cache.Get(applianceID)
	if !ok {
		return nil, false
	}
	list, ok := v.([]*natureremo.Signal)
	return list, ok
}

func (c *SignalCache) Set(applianceID string, list []*natureremo.Signal) {
	if c == nil {
		return
	}
	c.cache.SetWithTTL(applianceID, list, 1, c.ttl)
	c.cache.Wait()
}

func (c *SignalCache) Invalidate(applianceID string) {
	if c == nil {
		return
	}
	c.cache.Del(applianceID)
}

func (c *SignalCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}
