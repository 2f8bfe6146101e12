package conc

import (
	"github.com/a2y-d5l/go-conc/bridge"
	"github.com/a2y-d5l/go-conc/queue"
)

// Sentinel errors from the subpackages, re-exported so callers using the
// root aliases can run errors.Is checks without extra imports.
var (
	// ErrShutdown indicates an operation ran against a shut-down queue.
	ErrShutdown = queue.ErrShutdown
	// ErrBridgeClosed indicates the bridge was already closed (or never started).
	ErrBridgeClosed = bridge.ErrBridgeClosed
	// ErrBridgeUnhealthy indicates the server or client is not ready/connected.
	ErrBridgeUnhealthy = bridge.ErrBridgeUnhealthy
	// ErrInvalidSubject indicates a malformed subject or pattern.
	ErrInvalidSubject = bridge.ErrInvalidSubject
)
