package bridge

import "errors"

var (
	// ErrBridgeClosed indicates the bridge was already closed (or never started).
	ErrBridgeClosed = errors.New("bridge is closed")
	// ErrBridgeUnhealthy indicates the server or client is not ready/connected.
	ErrBridgeUnhealthy = errors.New("bridge is not healthy")
	// ErrInvalidSubject indicates the subject violates NATS naming rules.
	ErrInvalidSubject = errors.New("invalid subject")
)
