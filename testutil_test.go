package conc

import (
	"context"
	"testing"
	"time"

	"github.com/a2y-d5l/go-conc/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test utilities and helpers for consistent testing across the package

// CreateTestBridge creates a Bridge for testing with appropriate timeouts.
func CreateTestBridge(t *testing.T, opts ...BridgeOption) *Bridge {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	defaultOpts := []BridgeOption{
		bridge.WithEmbeddedPort(-1), // dynamic port
		bridge.WithReadyTimeout(5 * time.Second),
		bridge.WithDrainTimeout(1 * time.Second),
	}

	allOpts := append(defaultOpts, opts...)
	b, err := NewBridge(ctx, allOpts...)
	require.NoError(t, err, "Failed to create test bridge")

	t.Cleanup(func() {
		CleanupBridge(t, b)
	})

	return b
}

// CleanupBridge properly closes a test bridge and handles cleanup
func CleanupBridge(t *testing.T, b *Bridge) {
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

// AssertBridgeHealthy verifies that a bridge is in a healthy state
func AssertBridgeHealthy(t *testing.T, b *Bridge) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := b.Healthy(ctx)
	assert.NoError(t, err, "Bridge should be healthy")
}

// WithTestTimeout creates a context with a test-appropriate timeout
func WithTestTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// GenerateTestSubject creates a unique subject name for testing
func GenerateTestSubject(prefix string) Subject {
	return Subject(prefix + "." + time.Now().Format("20060102150405.000000"))
}

// WaitForCondition waits for a condition to become true within the timeout
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
