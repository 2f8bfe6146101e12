// Package cell provides a single-assignment synchronization cell.
//
// A Cell starts empty and is filled at most once. Unlimited goroutines
// may Await it, before or after the fill; they are all released by the
// same fill and observe the same result. Losing a fill race is benign:
// the losing call returns false instead of an error.
//
// A cell is filled in one of two shapes. A direct fill (Succeed, Fail,
// Die, Done, Complete) freezes one Outcome forever. CompleteWith instead
// associates a producer function with the cell: the cell counts as
// filled, but every Await evaluates the producer again and returns that
// evaluation's result. Complete memoizes, CompleteWith replays.
//
// Cells have no shutdown or cancellation of their own. Await on a cell
// that is never filled blocks forever; AwaitContext lets a caller stop
// waiting without affecting the cell.
package cell

import (
	"context"
	"sync"

	"github.com/a2y-d5l/go-conc/outcome"
)

// Cell is a single-assignment cell holding an Outcome with error type E
// and value type V. Must be created with New.
type Cell[E, V any] struct {
	mu       sync.Mutex
	done     chan struct{} // closed exactly once, on the winning association
	frozen   outcome.Outcome[E, V]
	producer func() outcome.Outcome[E, V]
}

// New returns a new empty cell.
func New[E, V any]() *Cell[E, V] {
	return &Cell[E, V]{done: make(chan struct{})}
}

// Await blocks until the cell is filled. On a frozen cell it returns the
// frozen outcome, identical for every waiter. On a cell filled by
// CompleteWith it evaluates the producer for this call and returns that
// evaluation's outcome; a panic in the producer becomes a Defect.
func (c *Cell[E, V]) Await() outcome.Outcome[E, V] {
	<-c.done
	return c.resolve()
}

// AwaitContext is Await with a caller-side escape: it returns ctx.Err()
// if ctx finishes before the cell is filled. The cell itself is
// unaffected.
func (c *Cell[E, V]) AwaitContext(ctx context.Context) (outcome.Outcome[E, V], error) {
	select {
	case <-c.done:
		return c.resolve(), nil
	case <-ctx.Done():
		var zero outcome.Outcome[E, V]
		return zero, ctx.Err()
	}
}

// Succeed attempts to fill the cell with Success(v). It reports whether
// this call won the fill race; on a filled cell it is a no-op returning
// false.
func (c *Cell[E, V]) Succeed(v V) bool {
	return c.freeze(outcome.Succeed[E, V](v))
}

// Fail attempts to fill the cell with Failure(e).
func (c *Cell[E, V]) Fail(e E) bool {
	return c.freeze(outcome.Fail[E, V](e))
}

// Die attempts to fill the cell with a Defect carrying cause.
func (c *Cell[E, V]) Die(cause any) bool {
	return c.freeze(outcome.Die[E, V](cause))
}

// Done attempts to fill the cell with a prebuilt outcome.
func (c *Cell[E, V]) Done(o outcome.Outcome[E, V]) bool {
	return c.freeze(o)
}

// Complete runs fn exactly once, immediately, on the calling goroutine,
// converting a panic into a Defect, then attempts to fill the cell with
// the result. fn runs even when the cell is already filled; a losing
// result is discarded and Complete returns false.
func (c *Cell[E, V]) Complete(fn func() outcome.Outcome[E, V]) bool {
	return c.freeze(outcome.Run(fn))
}

// CompleteWith attempts to fill the cell with fn itself, without running
// it. If this association wins, the cell counts as filled, waiters are
// released, and every Await or Poll evaluates fn independently from then
// on; no later fill can displace it. Returns false on a filled cell.
func (c *Cell[E, V]) CompleteWith(fn func() outcome.Outcome[E, V]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filledLocked() {
		return false
	}
	c.producer = fn
	close(c.done)
	return true
}

// IsDone reports whether the cell has been filled, by a direct fill or
// by a CompleteWith association. Never suspends.
func (c *Cell[E, V]) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Poll is a non-blocking Await: on an empty cell it returns (zero,
// false) instead of suspending. On a cell filled by CompleteWith it
// evaluates the producer for this call, like Await does.
func (c *Cell[E, V]) Poll() (outcome.Outcome[E, V], bool) {
	select {
	case <-c.done:
		return c.resolve(), true
	default:
		var zero outcome.Outcome[E, V]
		return zero, false
	}
}

// freeze performs the empty to frozen transition.
func (c *Cell[E, V]) freeze(o outcome.Outcome[E, V]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filledLocked() {
		return false
	}
	c.frozen = o
	close(c.done)
	return true
}

func (c *Cell[E, V]) filledLocked() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// resolve reads a filled cell. The fields are immutable once done is
// closed, so no lock is needed; producer evaluation happens outside any
// critical section.
func (c *Cell[E, V]) resolve() outcome.Outcome[E, V] {
	if c.producer != nil {
		return outcome.Run(c.producer)
	}
	return c.frozen
}
