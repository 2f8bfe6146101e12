// Package natsd embeds a NATS server for bridges that run without an
// external broker.
package natsd

import (
	"context"
	"fmt"
	"net"
	"time"

	nserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Server is a small façade around an embedded nats-server instance.
type Server struct {
	ns *nserver.Server
}

// New creates an embedded server bound to 127.0.0.1 on the given port.
// port -1 picks a free port. Signal handling and logging are disabled;
// the server lives and dies with its parent process.
func New(port int) (*Server, error) {
	return NewWithOptions(&nserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoSigs: true,
		NoLog:  true,
	})
}

// NewWithOptions creates an embedded server from full nats-server options.
func NewWithOptions(opts *nserver.Options) (*Server, error) {
	if opts == nil {
		return nil, fmt.Errorf("nats server create: nil options")
	}
	ns, err := nserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server create: %w", err)
	}
	return &Server{ns: ns}, nil
}

// Start launches the server in its own goroutine.
func (s *Server) Start() { go s.ns.Start() }

// ClientURL returns the nats:// URL clients should connect to.
func (s *Server) ClientURL() string { return s.ns.ClientURL() }

// Ready blocks until the server accepts connections or ctx expires.
func (s *Server) Ready(ctx context.Context) error {
	// Probe with a real client connection; readiness flags alone can
	// report ready before the listener accepts.
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if s.canConnect() {
				return nil
			}
		}
	}
}

func (s *Server) canConnect() bool {
	nc, err := nats.Connect(s.ns.ClientURL(), nats.Timeout(100*time.Millisecond))
	if err != nil {
		return false
	}
	nc.Close()
	return true
}

// Shutdown signals the server to stop and waits up to maxWait for it.
func (s *Server) Shutdown(ctx context.Context, maxWait time.Duration) error {
	s.ns.Shutdown()
	wait := make(chan struct{}, 1)
	go func() { s.ns.WaitForShutdown(); wait <- struct{}{} }()
	select {
	case <-wait:
		return nil
	case <-time.After(maxWait):
		return fmt.Errorf("server wait timeout after %s", maxWait)
	case <-ctx.Done():
		return fmt.Errorf("server wait canceled: %w", ctx.Err())
	}
}

// Port returns the bound TCP port or 0 if unknown.
func (s *Server) Port() int {
	if a := s.ns.Addr(); a != nil {
		if ta, ok := a.(*net.TCPAddr); ok {
			return ta.Port
		}
	}
	return 0
}
