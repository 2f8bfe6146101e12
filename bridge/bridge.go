package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-conc/internal/natsd"
	"github.com/a2y-d5l/go-conc/observability"
)

// Bridge owns the NATS connection, the embedded server when no external
// URL is configured, and the feeders, forwarders, and consumers built on
// it. It is safe for concurrent use.
type Bridge struct {
	mu  sync.RWMutex
	cfg config
	log *slog.Logger

	srv *natsd.Server // nil when connected to an external server
	nc  *nats.Conn

	stops  map[uint64]stopper
	nextID uint64

	metrics *observability.BridgeMetrics

	started atomic.Bool
	closed  atomic.Bool
}

// stopper is anything Close must stop before draining the connection.
type stopper interface {
	Stop(ctx context.Context) error
}

// New starts an embedded NATS server (unless WithServerURL points at an
// external one), waits until it's ready, and connects a client.
//
// Defaults "just work" for local dev: loopback host, dynamic port, JSON
// codec on every forwarder and feeder.
func New(ctx context.Context, opts ...Option) (*Bridge, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}

	b := &Bridge{cfg: cfg, log: cfg.log, stops: make(map[uint64]stopper)}
	if cfg.collector != nil {
		b.metrics = observability.NewBridgeMetrics(cfg.collector)
	}

	url := cfg.serverURL
	if url == "" {
		srv, err := natsd.New(cfg.embeddedPort)
		if err != nil {
			return nil, err
		}
		srv.Start()

		readyCtx, cancel := context.WithTimeout(ctx, cfg.readyTimeout)
		defer cancel()
		if err := srv.Ready(readyCtx); err != nil {
			_ = srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
			return nil, fmt.Errorf("nats server not ready: %w", err)
		}
		b.srv = srv
		url = srv.ClientURL()
	}

	copts := []nats.Option{
		nats.Name(cfg.clientName),
		nats.Timeout(cfg.connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1), // infinite
		nats.ReconnectWait(cfg.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				cfg.log.Warn("nats disconnected", "err", err)
			} else {
				cfg.log.Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) { cfg.log.Info("nats reconnected", "url", nc.ConnectedUrl()) }),
		nats.ClosedHandler(func(_ *nats.Conn) { cfg.log.Info("nats connection closed") }),
	}

	nc, err := nats.Connect(url, copts...)
	if err != nil {
		if b.srv != nil {
			_ = b.srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
		}
		return nil, fmt.Errorf("nats client connect: %w", err)
	}
	if err := nc.FlushTimeout(cfg.flushTimeout); err != nil {
		nc.Close()
		if b.srv != nil {
			_ = b.srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
		}
		return nil, fmt.Errorf("initial flush: %w", err)
	}

	b.nc = nc
	b.started.Store(true)

	cfg.log.Info("bridge started",
		"url", nc.ConnectedUrl(),
		"embedded", b.srv != nil,
	)

	return b, nil
}

// Healthy returns an error if the bridge is not in a usable state. This
// is a lightweight check; if the client is connected the server is
// assumed reachable.
func (b *Bridge) Healthy(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch {
	case !b.started.Load():
		return fmt.Errorf("%w: bridge not started", ErrBridgeUnhealthy)
	case b.closed.Load():
		return fmt.Errorf("%w: bridge already closed", ErrBridgeUnhealthy)
	case b.nc == nil:
		return fmt.Errorf("%w: client not initialized", ErrBridgeUnhealthy)
	case b.nc.Status() != nats.CONNECTED:
		return fmt.Errorf("%w: client not connected", ErrBridgeUnhealthy)
	default:
		return nil
	}
}

// Close stops every registered forwarder, feeder, and consumer, drains
// the client, and shuts the embedded server down. Idempotent; repeat
// calls return ErrBridgeClosed.
func (b *Bridge) Close(ctx context.Context) error {
	if !b.started.Load() || !b.closed.CompareAndSwap(false, true) {
		return ErrBridgeClosed
	}

	b.log.Info("closing bridge")

	b.mu.Lock()
	stops := make([]stopper, 0, len(b.stops))
	for _, s := range b.stops {
		stops = append(stops, s)
	}
	b.stops = nil
	nc := b.nc
	srv := b.srv
	drainTO := b.cfg.drainTimeout
	maxWait := b.cfg.shutdownMaxWait
	b.mu.Unlock()

	var merr *multierror.Error

	for _, s := range stops {
		if err := s.Stop(ctx); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if nc != nil {
		done := make(chan error, 1)
		go func() { done <- nc.Drain() }()
		select {
		case err := <-done:
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("nats drain: %w", err))
			}
		case <-time.After(drainTO):
			merr = multierror.Append(merr, fmt.Errorf("nats drain timeout after %s", drainTO))
			nc.Close()
		case <-ctx.Done():
			merr = multierror.Append(merr, fmt.Errorf("nats drain canceled: %w", ctx.Err()))
			nc.Close()
		}
	}

	if srv != nil {
		if err := srv.Shutdown(ctx, maxWait); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	b.mu.Lock()
	b.nc, b.srv = nil, nil
	b.mu.Unlock()

	if err := merr.ErrorOrNil(); err != nil {
		return err
	}

	b.log.Info("bridge closed")

	return nil
}

// Conn returns the underlying NATS connection for advanced usage. Use
// with caution as this exposes the internal connection.
func (b *Bridge) Conn() *nats.Conn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nc
}

// Port returns the port the embedded server is listening on, or -1 when
// connected to an external server.
func (b *Bridge) Port() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.srv == nil {
		return -1
	}
	return b.srv.Port()
}

// register tracks a child so Close can stop it.
func (b *Bridge) register(s stopper) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.stops != nil {
		b.stops[b.nextID] = s
	}
	return b.nextID
}

func (b *Bridge) deregister(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stops, id)
}
