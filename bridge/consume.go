package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-conc/internal/syncx"
	"github.com/a2y-d5l/go-conc/queue"
)

// ConsumeOption configures a Consumer.
type ConsumeOption[T any] func(*consumeConfig[T])

type consumeConfig[T any] struct {
	codec       Codec[T]
	group       string
	concurrency int
	capacity    int
	policy      queue.Policy
}

func defaultConsumeConfig[T any]() consumeConfig[T] {
	return consumeConfig[T]{
		codec:       JSONCodec[T](),
		concurrency: 1,
		capacity:    1024,
		policy:      queue.PolicyBlocking,
	}
}

// WithConcurrency sets the number of handler workers (default 1).
func WithConcurrency[T any](n int) ConsumeOption[T] {
	return func(c *consumeConfig[T]) { c.concurrency = n }
}

// WithQueueCapacity bounds the internal task queue (default 1024).
func WithQueueCapacity[T any](n int) ConsumeOption[T] {
	return func(c *consumeConfig[T]) { c.capacity = n }
}

// WithQueuePolicy selects the internal queue's admission policy
// (default blocking, which backpressures the subscription).
func WithQueuePolicy[T any](p queue.Policy) ConsumeOption[T] {
	return func(c *consumeConfig[T]) { c.policy = p }
}

// WithConsumeCodec overrides the default JSON codec.
func WithConsumeCodec[T any](codec Codec[T]) ConsumeOption[T] {
	return func(c *consumeConfig[T]) { c.codec = codec }
}

// WithConsumeGroup sets the queue group name. By default a group is
// derived from the subject, so consumers of the same subject share
// delivery.
func WithConsumeGroup[T any](name string) ConsumeOption[T] {
	return func(c *consumeConfig[T]) { c.group = name }
}

// Consumer dispatches decoded messages from a subject to a handler on a
// worker pool. Handler panics are recovered and logged; a poison message
// never takes a worker down.
type Consumer[T any] struct {
	b       *Bridge
	subject Subject
	handler func(context.Context, T) error
	pool    *syncx.Pool
	sub     *nats.Subscription
	id      uint64
}

// Consume subscribes to subject (wildcards allowed) and runs handler on
// each decoded message.
func Consume[T any](b *Bridge, subject Subject, handler func(context.Context, T) error, opts ...ConsumeOption[T]) (*Consumer[T], error) {
	if err := b.Healthy(context.Background()); err != nil {
		return nil, err
	}
	if err := subject.ValidatePattern(); err != nil {
		return nil, fmt.Errorf("consume %q: %w", subject, err)
	}

	cfg := defaultConsumeConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}
	group := cfg.group
	if group == "" {
		group = "q." + sanitizeSubject(string(subject))
	}

	pool := syncx.NewPool(syncx.PoolConfig{
		Workers:  cfg.concurrency,
		Capacity: cfg.capacity,
		Policy:   cfg.policy,
		Logger:   b.log,
	})
	if err := pool.Start(); err != nil {
		return nil, err
	}

	c := &Consumer[T]{b: b, subject: subject, handler: handler, pool: pool}

	cb := func(m *nats.Msg) {
		if mtr := b.metrics; mtr != nil {
			mtr.RecordReceived(m.Subject)
		}
		v, err := cfg.codec.Decode(m.Data)
		if err != nil {
			b.log.Warn("consume decode failed", "subject", m.Subject, "err", err)
			if mtr := b.metrics; mtr != nil {
				mtr.RecordDecodeError(m.Subject)
			}
			return
		}
		subj := m.Subject
		// Under a blocking policy a full pool suspends this callback,
		// backpressuring NATS delivery. Dropped tasks are counted by
		// the pool.
		_ = c.pool.Submit(func() { c.handle(subj, v) })
	}

	nc := b.Conn()
	sub, err := nc.QueueSubscribe(string(subject), group, cb)
	if err != nil {
		_ = pool.Stop(context.Background())
		return nil, err
	}
	if err := nc.FlushTimeout(b.cfg.flushTimeout); err != nil {
		_ = sub.Unsubscribe()
		_ = pool.Stop(context.Background())
		return nil, err
	}

	c.sub = sub
	c.id = b.register(c)
	return c, nil
}

// handle runs the handler for one message, containing panics.
func (c *Consumer[T]) handle(subject string, v T) {
	defer func() {
		if r := recover(); r != nil {
			c.b.log.Error("consumer handler panicked", "subject", subject, "panic", r)
			if mtr := c.b.metrics; mtr != nil {
				mtr.RecordHandlerPanic(subject)
			}
		}
	}()

	if err := c.handler(context.Background(), v); err != nil {
		c.b.log.Warn("consumer handler failed", "subject", subject, "err", err)
	}
}

// Drain stops delivery, lets queued tasks finish, then stops the pool.
func (c *Consumer[T]) Drain(ctx context.Context) error {
	if err := c.unsubscribe(); err != nil {
		c.b.deregister(c.id)
		return err
	}

	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for c.pool.QueueDepth() > 0 {
		select {
		case <-ctx.Done():
			c.b.deregister(c.id)
			return ctx.Err()
		case <-t.C:
		}
	}

	c.b.deregister(c.id)
	return c.stopPool(ctx)
}

// Stop unsubscribes and stops the pool, discarding queued tasks.
func (c *Consumer[T]) Stop(ctx context.Context) error {
	err := c.unsubscribe()
	c.b.deregister(c.id)
	if serr := c.stopPool(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}

func (c *Consumer[T]) stopPool(ctx context.Context) error {
	err := c.pool.Stop(ctx)
	if errors.Is(err, syncx.ErrPoolAlreadyStopped) {
		return nil
	}
	return err
}

func (c *Consumer[T]) unsubscribe() error {
	err := c.sub.Unsubscribe()
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
		return err
	}
	return nil
}
