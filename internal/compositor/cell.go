package compositor

import "sync"

// LatestCell is a single-slot latest-value cache. Store replaces the
// previous value unconditionally and Load returns whatever is current.
// Writers never block behind a render reading the other cell.
type LatestCell[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// Store replaces the cached value.
func (c *LatestCell[T]) Store(v T) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	c.set = true
}

// Load returns the cached value and whether one has been stored.
func (c *LatestCell[T]) Load() (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value, c.set
}

// Clear drops the cached value so the backing data can be released.
func (c *LatestCell[T]) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.set = false
}
