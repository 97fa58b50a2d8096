package cellgeo

import (
	"context"
	"time"

	"github.com/hello-nrfcloud/backend-sub002/internal/cache"
)

// Cached keeps recently used locations in memory in front of a Store.
type Cached struct {
	store Store
	ttl   time.Duration
	mem   *cache.Cache[string, Location]
}

// NewCached wraps store. Locations stay in memory for ttl.
func NewCached(store Store, ttl time.Duration, opts ...cache.Option) *Cached {
	return &Cached{
		store: store,
		ttl:   ttl,
		mem:   cache.New[string, Location](opts...),
	}
}

// Get serves cell from memory, falling back to the wrapped store.
func (c *Cached) Get(ctx context.Context, cell Cell) (Location, bool, error) {
	id := CellID(cell)
	if loc, ok := c.mem.Get(id); ok {
		return loc, true, nil
	}
	loc, ok, err := c.store.Get(ctx, cell)
	if err != nil || !ok {
		return Location{}, false, err
	}
	c.mem.Set(id, loc, c.ttl)
	return loc, true, nil
}

// Put writes through to the wrapped store.
func (c *Cached) Put(ctx context.Context, cell Cell, loc Location) error {
	if err := c.store.Put(ctx, cell, loc); err != nil {
		return err
	}
	c.mem.Set(CellID(cell), loc, c.ttl)
	return nil
}

// Delete removes cell from the wrapped store and from memory.
func (c *Cached) Delete(ctx context.Context, cell Cell) error {
	if err := c.store.Delete(ctx, cell); err != nil {
		return err
	}
	c.mem.Delete(CellID(cell))
	return nil
}

var (
	_ Store = (*Cached)(nil)
	_ Store = (*DynamoStore)(nil)
	_ Store = (*DuckDBStore)(nil)
)
