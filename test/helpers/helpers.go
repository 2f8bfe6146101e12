package helpers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-conc/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateTestBridge creates a Bridge backed by an embedded server on a
// dynamic port, with timeouts appropriate for tests.
func CreateTestBridge(t *testing.T, opts ...bridge.Option) *bridge.Bridge {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	defaultOpts := []bridge.Option{
		bridge.WithEmbeddedPort(-1), // dynamic port
		bridge.WithReadyTimeout(5 * time.Second),
		bridge.WithDrainTimeout(1 * time.Second),
	}

	allOpts := append(defaultOpts, opts...)
	b, err := bridge.New(ctx, allOpts...)
	require.NoError(t, err, "Failed to create test bridge")

	t.Cleanup(func() {
		CleanupBridge(t, b)
	})

	return b
}

// CleanupBridge closes a test bridge, logging rather than failing on error.
func CleanupBridge(t *testing.T, b *bridge.Bridge) {
	t.Helper()

	if b == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Close(ctx); err != nil {
		t.Logf("Warning: Error closing test bridge: %v", err)
	}
}

// AssertBridgeHealthy verifies that a bridge is in a healthy state.
func AssertBridgeHealthy(t *testing.T, b *bridge.Bridge) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := b.Healthy(ctx)
	assert.NoError(t, err, "Bridge should be healthy")
}

// WithTestTimeout creates a context with a test-appropriate timeout.
func WithTestTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// UniqueSubject creates a unique subject for testing so parallel tests
// never cross-deliver.
func UniqueSubject(prefix string) bridge.Subject {
	return bridge.Subject(prefix + "." + time.Now().Format("20060102150405.000000"))
}

// PublishRaw publishes raw bytes through the bridge connection and
// flushes, so a subsequent receive is not racing the send buffer.
func PublishRaw(t *testing.T, b *bridge.Bridge, subject bridge.Subject, data []byte) {
	t.Helper()

	nc := b.Conn()
	require.NoError(t, nc.Publish(string(subject), data))
	require.NoError(t, nc.FlushTimeout(2*time.Second))
}

// PublishJSON marshals v and publishes it through the bridge connection.
func PublishJSON(t *testing.T, b *bridge.Bridge, subject bridge.Subject, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	PublishRaw(t, b, subject, data)
}

// SubscribeCollect subscribes on the bridge connection and delivers every
// message to the returned channel. The subscription is cleaned up with
// the test.
func SubscribeCollect(t *testing.T, b *bridge.Bridge, subject bridge.Subject, capacity int) <-chan *nats.Msg {
	t.Helper()

	received := make(chan *nats.Msg, capacity)
	nc := b.Conn()
	sub, err := nc.Subscribe(string(subject), func(msg *nats.Msg) {
		received <- msg
	})
	require.NoError(t, err)
	require.NoError(t, nc.FlushTimeout(2*time.Second))

	t.Cleanup(func() {
		_ = sub.Unsubscribe()
	})

	return received
}

// WaitForCondition waits for a condition to become true within the timeout.
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Continue checking
		}
	}
}
