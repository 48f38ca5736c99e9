package social

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache keyed by user id. Entries are only ever replaced or removed
// whole, so readers see either the old or the new value of a key.
//
// While loads for a key are in flight the key carries a generation that Invalidate bumps; a
// load that overlapped an invalidation of its key is returned to its callers but not stored.
// Concurrent misses on the same key and generation share one load.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[uuid.UUID]V
	keys    map[uuid.UUID]*keyState
	loads   singleflight.Group
}

type keyState struct {
	gen     uint64
	loading int
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[uuid.UUID]V),
		keys:    make(map[uuid.UUID]*keyState),
	}
}

func (c *Cache[V]) Get(id uuid.UUID) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[id]
	return v, ok
}

// GetOrLoad returns the cached value of id or loads it. The load is shared with other callers,
// so it runs with ctx's values but without its cancellation.
func (c *Cache[V]) GetOrLoad(ctx context.Context, id uuid.UUID, load func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return v, nil
	}
	st := c.keys[id]
	if st == nil {
		st = &keyState{}
		c.keys[id] = st
	}
	st.loading++
	gen := st.gen
	c.mu.Unlock()

	defer c.release(id)

	shared, err, _ := c.loads.Do(id.String()+"/"+strconv.FormatUint(gen, 10), func() (any, error) {
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.keys[id].gen == gen {
			c.entries[id] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return shared.(V), nil
}

// release drops the key's state once no caller is inside a load for it.
func (c *Cache[V]) release(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.keys[id]
	st.loading--
	if st.loading == 0 {
		delete(c.keys, id)
	}
}

func (c *Cache[V]) Invalidate(ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.entries, id)
		if st, ok := c.keys[id]; ok {
			st.gen++
		}
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
