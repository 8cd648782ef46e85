package scripmaster

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader populates a dataset, typically from the exchange's bulk listing.
type Loader func(ctx context.Context) (*Dataset, error)

// Cache lazily populates the master dataset on first use and serves it for
// the remainder of the process. Population happens at most once, guarded by
// singleflight so concurrent first callers do not race to load redundantly.
// A failed load leaves an empty dataset in place, not an error: later fuzzy
// and ISIN lookups simply find nothing.
type Cache struct {
	loader Loader

	group     singleflight.Group
	mu        sync.RWMutex
	ds        *Dataset
	populated bool
}

// NewCache creates a cache around the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Dataset returns the cached dataset, populating it on first call.
func (c *Cache) Dataset(ctx context.Context) *Dataset {
	c.mu.RLock()
	if c.populated {
		ds := c.ds
		c.mu.RUnlock()
		return ds
	}
	c.mu.RUnlock()

	v, _, _ := c.group.Do("populate", func() (any, error) {
		ds, err := c.loader(ctx)
		if err != nil || ds == nil {
			if err != nil {
				zap.L().Warn("scripmaster: population failed, continuing with empty dataset",
					zap.Error(err),
				)
			}
			ds = NewDataset()
		} else {
			zap.L().Info("scripmaster: master loaded", zap.Int("entries", ds.Len()))
		}

		c.mu.Lock()
		c.ds = ds
		c.populated = true
		c.mu.Unlock()
		return ds, nil
	})
	return v.(*Dataset)
}

// Invalidate drops the cached dataset so the next call repopulates.
// Unused by the sequential pipeline; exists as an explicit hook.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.ds = nil
	c.populated = false
	c.mu.Unlock()
}
