// Package cache provides per-key memoization built on cells.
//
// A Cache maps keys to cells with an atomic insert-if-absent, so
// concurrent first accesses of a key elect exactly one caller to run
// the computation while everyone else awaits the same cell. Whatever
// the computation produces, including a Defect from a panic, is
// memoized and served to every later access of that key.
package cache

import (
	"context"
	"sync"

	"github.com/a2y-d5l/go-conc/cell"
	"github.com/a2y-d5l/go-conc/outcome"
)

// Cache memoizes one Outcome per key. The zero value is not usable;
// create caches with New.
type Cache[K comparable, E, V any] struct {
	mu    sync.Mutex
	cells map[K]*cell.Cell[E, V]
}

// New returns an empty cache.
func New[K comparable, E, V any]() *Cache[K, E, V] {
	return &Cache[K, E, V]{cells: make(map[K]*cell.Cell[E, V])}
}

// Get returns the memoized outcome for k, computing it on first
// access. The winner of a concurrent first access runs compute exactly
// once, on its own goroutine, while every other caller awaits the same
// cell; all of them observe the identical outcome. A panic in compute
// becomes a memoized Defect, served like any other outcome.
func (c *Cache[K, E, V]) Get(k K, compute func(K) outcome.Outcome[E, V]) outcome.Outcome[E, V] {
	cl, created := c.lookup(k)
	if created {
		cl.Complete(func() outcome.Outcome[E, V] { return compute(k) })
	}
	return cl.Await()
}

// GetContext is Get with a caller-side escape. The computation runs on
// a separate goroutine, so a caller abandoning the wait leaves the
// in-flight compute, and the eventual memoized outcome, unaffected.
func (c *Cache[K, E, V]) GetContext(ctx context.Context, k K, compute func(K) outcome.Outcome[E, V]) (outcome.Outcome[E, V], error) {
	cl, created := c.lookup(k)
	if created {
		go cl.Complete(func() outcome.Outcome[E, V] { return compute(k) })
	}
	return cl.AwaitContext(ctx)
}

// Cell returns the cell behind k without creating one.
func (c *Cache[K, E, V]) Cell(k K) (*cell.Cell[E, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.cells[k]
	return cl, ok
}

// Forget drops k so the next access recomputes. It reports whether an
// entry existed. Callers already awaiting the old cell still receive
// the old computation's outcome.
func (c *Cache[K, E, V]) Forget(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cells[k]; !ok {
		return false
	}
	delete(c.cells, k)
	return true
}

// Len returns the number of keys present.
func (c *Cache[K, E, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cells)
}

// Keys returns a snapshot of the keys present, in no particular order.
func (c *Cache[K, E, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.cells))
	for k := range c.cells {
		keys = append(keys, k)
	}
	return keys
}

// lookup returns the cell for k, inserting a fresh one if absent. The
// boolean reports whether this call created it; the creator is the one
// caller responsible for completing the cell.
func (c *Cache[K, E, V]) lookup(k K) (*cell.Cell[E, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cells[k]; ok {
		return existing, false
	}
	created := cell.New[E, V]()
	c.cells[k] = created
	return created, true
}
