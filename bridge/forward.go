package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/a2y-d5l/go-conc/queue"
)

// ForwardOption configures a Forwarder.
type ForwardOption[T any] func(*forwardConfig[T])

type forwardConfig[T any] struct {
	codec   Codec[T]
	workers int
	limit   *rate.Limiter
	headers map[string]string
}

func defaultForwardConfig[T any]() forwardConfig[T] {
	return forwardConfig[T]{
		codec:   JSONCodec[T](),
		workers: 1,
	}
}

// WithPumpWorkers sets the number of pump goroutines draining the queue
// (default 1).
func WithPumpWorkers[T any](n int) ForwardOption[T] {
	return func(c *forwardConfig[T]) { c.workers = n }
}

// WithRate throttles publishing to r events per second with the given
// burst.
func WithRate[T any](r rate.Limit, burst int) ForwardOption[T] {
	return func(c *forwardConfig[T]) { c.limit = rate.NewLimiter(r, burst) }
}

// WithCodec overrides the default JSON codec.
func WithCodec[T any](codec Codec[T]) ForwardOption[T] {
	return func(c *forwardConfig[T]) { c.codec = codec }
}

// WithHeaders merges fixed headers onto every outbound message.
func WithHeaders[T any](h map[string]string) ForwardOption[T] {
	return func(c *forwardConfig[T]) {
		if c.headers == nil {
			c.headers = make(map[string]string, len(h))
		}
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// Forwarder pumps a queue's elements to a NATS subject until the queue
// shuts down or Stop is called. Each message carries a content type, a
// fresh message id, and a timestamp header.
type Forwarder[T any] struct {
	b       *Bridge
	nc      *nats.Conn
	subject Subject
	q       *queue.Queue[T]
	cfg     forwardConfig[T]

	cancel context.CancelFunc
	g      *errgroup.Group
	id     uint64
}

// Forward starts pumping q's elements to subject. The subject must be
// literal. The pump ends cleanly when the queue shuts down.
func Forward[T any](b *Bridge, subject Subject, q *queue.Queue[T], opts ...ForwardOption[T]) (*Forwarder[T], error) {
	if err := b.Healthy(context.Background()); err != nil {
		return nil, err
	}
	if err := subject.Validate(); err != nil {
		return nil, fmt.Errorf("forward %q: %w", subject, err)
	}

	cfg := defaultForwardConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	f := &Forwarder[T]{
		b:       b,
		nc:      b.Conn(),
		subject: subject,
		q:       q,
		cfg:     cfg,
		cancel:  cancel,
		g:       g,
	}
	for i := 0; i < cfg.workers; i++ {
		g.Go(func() error { return f.pump(gctx) })
	}
	f.id = b.register(f)
	return f, nil
}

// pump takes elements until the queue shuts down or the forwarder stops.
func (f *Forwarder[T]) pump(ctx context.Context) error {
	for {
		v, err := f.q.TakeContext(ctx)
		if err != nil {
			// Queue shutdown and pump stop both end the pump cleanly.
			return nil
		}
		if f.cfg.limit != nil {
			// A taken element is always published; on cancellation skip
			// the wait rather than drop it.
			_ = f.cfg.limit.Wait(ctx)
		}
		f.publish(v)
	}
}

func (f *Forwarder[T]) publish(v T) {
	data, err := f.cfg.codec.Encode(v)
	if err != nil {
		f.b.log.Warn("forward encode failed", "subject", string(f.subject), "err", err)
		if m := f.b.metrics; m != nil {
			m.RecordPublished(string(f.subject), false)
		}
		return
	}

	msg := &nats.Msg{
		Subject: string(f.subject),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(HeaderContentType, f.cfg.codec.ContentType())
	msg.Header.Set(HeaderMessageID, uuid.NewString())
	msg.Header.Set(HeaderTimestamp, time.Now().Format(time.RFC3339Nano))
	for k, v := range f.cfg.headers {
		msg.Header.Set(k, v)
	}

	start := time.Now()
	if err := f.nc.PublishMsg(msg); err != nil {
		f.b.log.Warn("forward publish failed", "subject", string(f.subject), "err", err)
		if m := f.b.metrics; m != nil {
			m.RecordPublished(string(f.subject), false)
		}
		return
	}
	if m := f.b.metrics; m != nil {
		m.RecordPublished(string(f.subject), true)
		m.RecordPublishDuration(string(f.subject), time.Since(start))
	}
}

// Stop halts the pump goroutines and waits for them up to ctx. Elements
// still in the queue stay there.
func (f *Forwarder[T]) Stop(ctx context.Context) error {
	f.cancel()

	done := make(chan error, 1)
	go func() { done <- f.g.Wait() }()
	select {
	case err := <-done:
		f.b.deregister(f.id)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
