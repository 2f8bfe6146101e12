package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-conc/queue"
)

// FeedOption configures a Feeder.
type FeedOption[T any] func(*feedConfig[T])

type feedConfig[T any] struct {
	codec Codec[T]
	group string
}

func defaultFeedConfig[T any]() feedConfig[T] {
	return feedConfig[T]{codec: JSONCodec[T]()}
}

// WithFeedCodec overrides the default JSON codec.
func WithFeedCodec[T any](codec Codec[T]) FeedOption[T] {
	return func(c *feedConfig[T]) { c.codec = codec }
}

// WithFeedGroup sets the queue group name. By default a group is derived
// from the subject, so feeders of the same subject share delivery.
func WithFeedGroup[T any](name string) FeedOption[T] {
	return func(c *feedConfig[T]) { c.group = name }
}

// Feeder subscribes to a subject and offers each decoded message into a
// caller-owned queue. The queue's admission policy is the backpressure
// behavior: a full blocking queue suspends the subscription callback,
// sliding and dropping queues shed.
type Feeder[T any] struct {
	b       *Bridge
	subject Subject
	q       *queue.Queue[T]
	sub     *nats.Subscription
	id      uint64
}

// Feed subscribes to subject (wildcards allowed) and starts filling q.
func Feed[T any](b *Bridge, subject Subject, q *queue.Queue[T], opts ...FeedOption[T]) (*Feeder[T], error) {
	if err := b.Healthy(context.Background()); err != nil {
		return nil, err
	}
	if err := subject.ValidatePattern(); err != nil {
		return nil, fmt.Errorf("feed %q: %w", subject, err)
	}

	cfg := defaultFeedConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}
	group := cfg.group
	if group == "" {
		group = "q." + sanitizeSubject(string(subject))
	}

	f := &Feeder[T]{b: b, subject: subject, q: q}

	cb := func(m *nats.Msg) {
		if mtr := b.metrics; mtr != nil {
			mtr.RecordReceived(m.Subject)
		}
		v, err := cfg.codec.Decode(m.Data)
		if err != nil {
			b.log.Warn("feed decode failed", "subject", m.Subject, "err", err)
			if mtr := b.metrics; mtr != nil {
				mtr.RecordDecodeError(m.Subject)
			}
			return
		}
		if _, err := q.Offer(v); err != nil {
			// Queue shut down under us; the subscription is torn down
			// by Stop or Close.
			b.log.Debug("feed offer after queue shutdown", "subject", m.Subject)
		}
	}

	nc := b.Conn()
	sub, err := nc.QueueSubscribe(string(subject), group, cb)
	if err != nil {
		return nil, err
	}
	if err := nc.FlushTimeout(b.cfg.flushTimeout); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}

	f.sub = sub
	f.id = b.register(f)
	return f, nil
}

// Drain stops delivery and waits until the queue has been emptied or
// ctx expires.
func (f *Feeder[T]) Drain(ctx context.Context) error {
	if err := f.unsubscribe(); err != nil {
		f.b.deregister(f.id)
		return err
	}

	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for !f.q.IsEmpty() {
		select {
		case <-ctx.Done():
			f.b.deregister(f.id)
			return ctx.Err()
		case <-t.C:
		}
	}
	f.b.deregister(f.id)
	return nil
}

// Stop unsubscribes immediately without waiting for queued elements.
func (f *Feeder[T]) Stop(ctx context.Context) error {
	err := f.unsubscribe()
	f.b.deregister(f.id)
	return err
}

func (f *Feeder[T]) unsubscribe() error {
	err := f.sub.Unsubscribe()
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
		return err
	}
	return nil
}
