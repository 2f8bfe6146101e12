package bridge

import (
	"log/slog"
	"time"

	"github.com/a2y-d5l/go-conc/observability"
)

// Option configures the Bridge.
type Option func(*config)

// WithServerURL connects to an external NATS server instead of starting
// an embedded one.
func WithServerURL(url string) Option { return func(c *config) { c.serverURL = url } }

// WithEmbeddedPort sets the embedded server port. -1 (the default)
// selects a random free port.
func WithEmbeddedPort(p int) Option { return func(c *config) { c.embeddedPort = p } }

// WithName sets the NATS client connection name (default go-conc).
func WithName(name string) Option { return func(c *config) { c.clientName = name } }

// WithConnectTimeout sets the client connect timeout.
func WithConnectTimeout(d time.Duration) Option { return func(c *config) { c.connectTimeout = d } }

// WithFlushTimeout sets the timeout for connection flushes.
func WithFlushTimeout(d time.Duration) Option { return func(c *config) { c.flushTimeout = d } }

// WithReconnectWait sets the fixed wait between reconnect attempts.
func WithReconnectWait(d time.Duration) Option { return func(c *config) { c.reconnectWait = d } }

// WithReadyTimeout sets how long to wait for the embedded server to be ready.
func WithReadyTimeout(d time.Duration) Option { return func(c *config) { c.readyTimeout = d } }

// WithDrainTimeout sets how long Close waits for client drain before hard-close.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *config) {
		c.drainTimeout = d
		c.shutdownMaxWait = d
	}
}

// WithLogger injects a slog logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }

// WithCollector wires bridge metrics into the given collector.
func WithCollector(mc observability.MetricsCollector) Option {
	return func(c *config) { c.collector = mc }
}
