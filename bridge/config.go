package bridge

import (
	"log/slog"
	"time"

	"github.com/a2y-d5l/go-conc/observability"
)

// config holds all tunables for the Bridge (via functional options).
type config struct {
	// Server: an external URL, or an embedded server when the URL is
	// empty. Port -1 selects a random free port.
	serverURL    string
	embeddedPort int

	// Client
	clientName     string
	connectTimeout time.Duration
	flushTimeout   time.Duration
	reconnectWait  time.Duration

	// Lifecycle
	readyTimeout    time.Duration
	shutdownMaxWait time.Duration
	drainTimeout    time.Duration

	// Observability
	collector observability.MetricsCollector
	log       *slog.Logger
}

func defaultConfig() config {
	return config{
		embeddedPort: -1, // dynamic port by default

		clientName:     "go-conc",
		connectTimeout: 2 * time.Second,
		flushTimeout:   2 * time.Second,
		reconnectWait:  250 * time.Millisecond,

		readyTimeout:    5 * time.Second,
		shutdownMaxWait: 5 * time.Second,
		drainTimeout:    5 * time.Second,
	}
}
