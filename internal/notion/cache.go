package notion

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CollectionCache memoizes database id → data source id for the process
// lifetime. Concurrent first lookups of one id share a single call; failed
// lookups are not cached.
type CollectionCache struct {
	mu    sync.RWMutex
	ids   map[string]string
	group singleflight.Group
}

func NewCollectionCache() *CollectionCache {
	return &CollectionCache{ids: make(map[string]string)}
}

// Get returns a cached data source id.
func (c *CollectionCache) Get(databaseID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[databaseID]
	return id, ok
}

// Len returns the number of resolved ids.
func (c *CollectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Resolve returns the cached id for databaseID or runs lookup once to fill it.
// The shared lookup is detached from any one caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (c *CollectionCache) Resolve(ctx context.Context, databaseID string, lookup func(context.Context, string) (string, error)) (string, error) {
	if id, ok := c.Get(databaseID); ok {
		return id, nil
	}

	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan(databaseID, func() (any, error) {
		// A caller that lost the race to an earlier flight lands here
		// after the map was filled.
		if id, ok := c.Get(databaseID); ok {
			return id, nil
		}
		id, err := lookup(flight, databaseID)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.ids[databaseID] = id
		c.mu.Unlock()
		return id, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
