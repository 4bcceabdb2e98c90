// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Guard publishes a value under single-writer, any-reader discipline.
// The pipeline loop is the only writer; monitoring readers may observe a
// snapshot that is stale by up to one cycle.
type Guard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guard holding initial.
func NewGuard[T any](initial T) *Guard[T] {
	return &Guard[T]{value: initial}
}

// Load returns a copy of the current value (T should be a value type or
// otherwise immutable).
func (g *Guard[T]) Load() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Store replaces the published value.
func (g *Guard[T]) Store(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Update mutates the value in place while holding the write lock.
func (g *Guard[T]) Update(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}

// Swap replaces the value and returns the previous one.
func (g *Guard[T]) Swap(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.value
	g.value = v
	return old
}
