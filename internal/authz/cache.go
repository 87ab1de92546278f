package authz

import (
	"sync"
	"time"
)

// cacheCell holds one cached payload with its fetch timestamp. The mutex
// guards only the cell's fields; loads run outside it, so concurrent
// requests observing a stale cell may each reload. That duplicate work is
// tolerated: all loaders converge on the same stored value.
type cacheCell[T any] struct {
	mu        sync.Mutex
	payload   T
	fetchedAt time.Time
	loaded    bool
}

// get returns the cached payload if it was stored within the freshness
// window ending at now.
func (c *cacheCell[T]) get(now time.Time, window time.Duration) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || now.Sub(c.fetchedAt) >= window {
		var zero T
		return zero, false
	}
	return c.payload, true
}

// put stores a freshly loaded payload.
func (c *cacheCell[T]) put(payload T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = payload
	c.fetchedAt = now
	c.loaded = true
}

// invalidate clears the cell so the next get forces a reload.
func (c *cacheCell[T]) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.payload = zero
	c.fetchedAt = time.Time{}
	c.loaded = false
}
