// Package queue provides a FIFO queue for concurrent producers and
// consumers, with a capacity policy chosen at construction and a
// cooperative shutdown that releases every blocked party.
//
// Four policies cover the usual backpressure choices: PolicyUnbounded
// never refuses an element, PolicyBlocking suspends producers at
// capacity, PolicySliding evicts the oldest element, and PolicyDropping
// discards the newest. Element order is FIFO end to end; the only
// elements ever lost are the ones a policy deliberately discards.
//
// Blocked producers and consumers are each released first-blocked,
// first-served. Shutdown interrupts all of them with ErrShutdown and
// makes every later offer or take fail fast.
package queue

import (
	"context"
	"sync"
)

// Queue is a FIFO multi-producer multi-consumer queue. Must be created
// with one of the constructors.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int // 0 means unbounded
	policy   Policy
	takers   []*takeWaiter[T]
	offerers []*offerWaiter[T]
	down     chan struct{} // closed by Shutdown
	rec      Recorder
}

// takeWaiter is a consumer blocked on an empty queue. Its channel either
// receives exactly one element or is closed at shutdown.
type takeWaiter[T any] struct {
	ch chan T
}

// offerWaiter is a producer blocked on a full blocking queue. Its
// channel receives nil once the element is enqueued, or ErrShutdown.
type offerWaiter[T any] struct {
	value T
	ch    chan error
}

// New returns an open queue with the given policy. capacity is ignored
// for PolicyUnbounded and must be at least 1 for the bounded policies;
// New panics on a zero or negative bounded capacity or an unknown
// policy.
func New[T any](policy Policy, capacity int, opts ...Option) *Queue[T] {
	switch policy {
	case PolicyUnbounded:
		capacity = 0
	case PolicyBlocking, PolicySliding, PolicyDropping:
		if capacity < 1 {
			panic("queue: bounded policies require capacity >= 1")
		}
	default:
		panic("queue: unknown policy")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Queue[T]{
		capacity: capacity,
		policy:   policy,
		down:     make(chan struct{}),
		rec:      cfg.rec,
	}
}

// NewUnbounded returns a queue that always admits.
func NewUnbounded[T any](opts ...Option) *Queue[T] {
	return New[T](PolicyUnbounded, 0, opts...)
}

// NewBlocking returns a bounded queue that suspends producers at
// capacity.
func NewBlocking[T any](capacity int, opts ...Option) *Queue[T] {
	return New[T](PolicyBlocking, capacity, opts...)
}

// NewSliding returns a bounded queue that evicts its oldest element at
// capacity.
func NewSliding[T any](capacity int, opts ...Option) *Queue[T] {
	return New[T](PolicySliding, capacity, opts...)
}

// NewDropping returns a bounded queue that discards new elements at
// capacity.
func NewDropping[T any](capacity int, opts ...Option) *Queue[T] {
	return New[T](PolicyDropping, capacity, opts...)
}

// Offer submits v according to the queue's policy. The boolean reports
// whether v entered the queue (a Dropping queue at capacity returns
// false, nil). Under PolicyBlocking a full queue suspends the caller
// until space frees or the queue shuts down; the error is ErrShutdown
// when shutdown interrupts the wait or has already happened.
func (q *Queue[T]) Offer(v T) (bool, error) {
	w, admitted, err := q.offerAsync(v)
	if w == nil {
		return admitted, err
	}
	if err := <-w.ch; err != nil {
		return false, err
	}
	return true, nil
}

// OfferContext is Offer with a caller-side escape for the blocking
// wait. If ctx finishes first the offer is withdrawn and ctx.Err()
// returned; if the element was already enqueued when the cancellation
// fired, the offer counts as delivered and returns (true, nil).
func (q *Queue[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	w, admitted, err := q.offerAsync(v)
	if w == nil {
		return admitted, err
	}
	select {
	case err := <-w.ch:
		if err != nil {
			return false, err
		}
		return true, nil
	case <-ctx.Done():
		if q.abandonOffer(w) {
			return false, ctx.Err()
		}
		// Too late to withdraw: the queue already resolved this offer.
		if err := <-w.ch; err != nil {
			return false, err
		}
		return true, nil
	}
}

// OfferAll offers each element in order with Offer's per-element
// semantics; under PolicyBlocking it may suspend mid-batch, and elements
// admitted before a shutdown interruption stay admitted. The boolean is
// true iff every element entered the queue.
func (q *Queue[T]) OfferAll(vs []T) (bool, error) {
	all := true
	for _, v := range vs {
		admitted, err := q.Offer(v)
		if err != nil {
			return false, err
		}
		if !admitted {
			all = false
		}
	}
	return all, nil
}

// OfferAllContext is OfferAll using OfferContext per element.
func (q *Queue[T]) OfferAllContext(ctx context.Context, vs []T) (bool, error) {
	all := true
	for _, v := range vs {
		admitted, err := q.OfferContext(ctx, v)
		if err != nil {
			return false, err
		}
		if !admitted {
			all = false
		}
	}
	return all, nil
}

// Take removes and returns the oldest element, suspending while the
// queue is empty. Consumers are served first-blocked, first-served.
// Returns ErrShutdown if the queue shuts down while waiting or already
// has.
func (q *Queue[T]) Take() (T, error) {
	w, v, err := q.takeAsync()
	if w == nil {
		return v, err
	}
	v, ok := <-w.ch
	if !ok {
		var zero T
		return zero, ErrShutdown
	}
	return v, nil
}

// TakeContext is Take with a caller-side escape. An element already
// handed to this consumer beats the cancellation and is returned.
func (q *Queue[T]) TakeContext(ctx context.Context) (T, error) {
	w, v, err := q.takeAsync()
	if w == nil {
		return v, err
	}
	select {
	case v, ok := <-w.ch:
		if !ok {
			var zero T
			return zero, ErrShutdown
		}
		return v, nil
	case <-ctx.Done():
		if q.abandonTake(w) {
			var zero T
			return zero, ctx.Err()
		}
		// Too late to withdraw: an element or the shutdown is already
		// committed to this waiter.
		v, ok := <-w.ch
		if !ok {
			var zero T
			return zero, ErrShutdown
		}
		return v, nil
	}
}

// TakeAll atomically drains the queue and returns its contents in FIFO
// order. Never suspends; an empty queue yields an empty slice.
func (q *Queue[T]) TakeAll() ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdownLocked() {
		return nil, ErrShutdown
	}

	out := make([]T, len(q.items))
	copy(out, q.items)
	q.items = q.items[:0]
	q.promoteLocked()
	if q.rec != nil {
		q.rec.RecordTake(len(out))
		q.rec.RecordDepth(len(q.items))
	}
	return out, nil
}

// TakeUpTo removes and returns at most n of the oldest elements. Never
// suspends; n <= 0 yields an empty slice.
func (q *Queue[T]) TakeUpTo(n int) ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdownLocked() {
		return nil, ErrShutdown
	}
	if n <= 0 {
		return []T{}, nil
	}
	if n > len(q.items) {
		n = len(q.items)
	}

	out := make([]T, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	q.promoteLocked()
	if q.rec != nil {
		q.rec.RecordTake(len(out))
		q.rec.RecordDepth(len(q.items))
	}
	return out, nil
}

// Poll removes and returns the oldest element without suspending. The
// boolean reports whether an element was available.
func (q *Queue[T]) Poll() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.shutdownLocked() {
		return zero, false, ErrShutdown
	}
	if len(q.items) == 0 {
		return zero, false, nil
	}

	v := q.items[0]
	q.items = q.items[1:]
	q.promoteLocked()
	if q.rec != nil {
		q.rec.RecordTake(1)
		q.rec.RecordDepth(len(q.items))
	}
	return v, true, nil
}

// Size returns the number of queued elements; 0 after shutdown.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.Size() == 0
}

// Capacity returns the configured capacity, 0 for unbounded queues.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Policy returns the queue's admission policy.
func (q *Queue[T]) Policy() Policy {
	return q.policy
}

// Shutdown closes the queue: every blocked producer and consumer is
// released with ErrShutdown, queued elements are discarded, and later
// offers and takes fail fast. Idempotent; repeat calls are no-ops.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	if q.shutdownLocked() {
		q.mu.Unlock()
		return
	}
	takers := q.takers
	offerers := q.offerers
	q.takers = nil
	q.offerers = nil
	q.items = nil
	close(q.down)
	if q.rec != nil {
		q.rec.RecordShutdown()
		q.rec.RecordDepth(0)
	}
	q.mu.Unlock()

	// Interrupt outside the lock; every waiter channel is detached and
	// owned by this call now.
	for _, tw := range takers {
		close(tw.ch)
	}
	for _, ow := range offerers {
		ow.ch <- ErrShutdown
	}
}

// IsShutdown reports whether Shutdown has been called.
func (q *Queue[T]) IsShutdown() bool {
	select {
	case <-q.down:
		return true
	default:
		return false
	}
}

// AwaitShutdown blocks until the queue is shut down.
func (q *Queue[T]) AwaitShutdown() {
	<-q.down
}

// AwaitShutdownContext blocks until the queue is shut down or ctx
// finishes, returning ctx.Err() in the latter case.
func (q *Queue[T]) AwaitShutdownContext(ctx context.Context) error {
	select {
	case <-q.down:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offerAsync performs the non-suspending part of an offer. It returns a
// waiter only when the caller must block (blocking policy, queue full);
// otherwise the boolean and error are the offer's result.
func (q *Queue[T]) offerAsync(v T) (*offerWaiter[T], bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdownLocked() {
		return nil, false, ErrShutdown
	}

	// A waiting consumer implies an empty queue: hand the element to the
	// longest-waiting one directly.
	if len(q.takers) > 0 {
		tw := q.takers[0]
		q.takers = q.takers[1:]
		tw.ch <- v
		if q.rec != nil {
			q.rec.RecordOffer(true)
		}
		return nil, true, nil
	}

	if q.capacity == 0 || len(q.items) < q.capacity {
		q.items = append(q.items, v)
		if q.rec != nil {
			q.rec.RecordOffer(true)
			q.rec.RecordDepth(len(q.items))
		}
		return nil, true, nil
	}

	// Queue is full, apply the admission policy.
	switch q.policy {
	case PolicySliding:
		q.items = q.items[1:]
		q.items = append(q.items, v)
		if q.rec != nil {
			q.rec.RecordEvict(1)
			q.rec.RecordOffer(true)
			q.rec.RecordDepth(len(q.items))
		}
		return nil, true, nil

	case PolicyDropping:
		if q.rec != nil {
			q.rec.RecordOffer(false)
		}
		return nil, false, nil

	default: // PolicyBlocking
		ow := &offerWaiter[T]{value: v, ch: make(chan error, 1)}
		q.offerers = append(q.offerers, ow)
		return ow, false, nil
	}
}

// takeAsync performs the non-suspending part of a take. It returns a
// waiter only when the caller must block on an empty queue.
func (q *Queue[T]) takeAsync() (*takeWaiter[T], T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.shutdownLocked() {
		return nil, zero, ErrShutdown
	}

	if len(q.items) > 0 {
		v := q.items[0]
		q.items = q.items[1:]
		q.promoteLocked()
		if q.rec != nil {
			q.rec.RecordTake(1)
			q.rec.RecordDepth(len(q.items))
		}
		return nil, v, nil
	}

	tw := &takeWaiter[T]{ch: make(chan T, 1)}
	q.takers = append(q.takers, tw)
	return tw, zero, nil
}

// promoteLocked moves blocked producers into freed space, oldest first,
// completing their offers. Only blocking queues ever have offerers.
func (q *Queue[T]) promoteLocked() {
	for len(q.offerers) > 0 && (q.capacity == 0 || len(q.items) < q.capacity) {
		ow := q.offerers[0]
		q.offerers = q.offerers[1:]
		q.items = append(q.items, ow.value)
		ow.ch <- nil
		if q.rec != nil {
			q.rec.RecordOffer(true)
		}
	}
}

// abandonOffer withdraws a blocked offer; false means the queue already
// resolved it (enqueued or interrupted) and its channel must be read.
func (q *Queue[T]) abandonOffer(w *offerWaiter[T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, ow := range q.offerers {
		if ow == w {
			q.offerers = append(q.offerers[:i], q.offerers[i+1:]...)
			return true
		}
	}
	return false
}

// abandonTake withdraws a blocked take; false means an element or the
// shutdown is already committed to the waiter's channel.
func (q *Queue[T]) abandonTake(w *takeWaiter[T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, tw := range q.takers {
		if tw == w {
			q.takers = append(q.takers[:i], q.takers[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue[T]) shutdownLocked() bool {
	select {
	case <-q.down:
		return true
	default:
		return false
	}
}
