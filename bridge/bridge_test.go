package bridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/a2y-d5l/go-conc/bridge"
	"github.com/a2y-d5l/go-conc/queue"
	"github.com/a2y-d5l/go-conc/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_New(t *testing.T) {
	tests := []struct {
		name    string
		opts    []bridge.Option
		wantErr bool
	}{
		{
			name:    "default options",
			opts:    nil,
			wantErr: false,
		},
		{
			name:    "with client name",
			opts:    []bridge.Option{bridge.WithName("bridge-test")},
			wantErr: false,
		},
		{
			name:    "with dynamic port",
			opts:    []bridge.Option{bridge.WithEmbeddedPort(-1)},
			wantErr: false,
		},
		{
			name: "with custom timeouts",
			opts: []bridge.Option{
				bridge.WithConnectTimeout(5 * time.Second),
				bridge.WithFlushTimeout(1 * time.Second),
				bridge.WithDrainTimeout(3 * time.Second),
				bridge.WithReconnectWait(100 * time.Millisecond),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
			defer cancel()

			b, err := bridge.New(ctx, tt.opts...)
			if b != nil {
				defer helpers.CleanupBridge(t, b)
			}

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, b)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, b)
			helpers.AssertBridgeHealthy(t, b)
		})
	}
}

func TestBridge_ExternalServer(t *testing.T) {
	// Point a second bridge at the first one's embedded server.
	host := helpers.CreateTestBridge(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	b, err := bridge.New(ctx, bridge.WithServerURL(host.Conn().ConnectedUrl()))
	require.NoError(t, err)
	defer helpers.CleanupBridge(t, b)

	helpers.AssertBridgeHealthy(t, b)
	assert.Equal(t, -1, b.Port(), "external bridge should not report an embedded port")

	// Closing the external bridge must not take the host down.
	require.NoError(t, b.Close(ctx))
	helpers.AssertBridgeHealthy(t, host)
}

func TestBridge_Healthy(t *testing.T) {
	t.Run("healthy bridge", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
		defer cancel()

		assert.NoError(t, b.Healthy(ctx))
	})

	t.Run("closed bridge", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
		defer cancel()
		require.NoError(t, b.Close(ctx))

		err := b.Healthy(ctx)
		assert.ErrorIs(t, err, bridge.ErrBridgeUnhealthy)
	})

	t.Run("never started bridge", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
		defer cancel()

		err := (&bridge.Bridge{}).Healthy(ctx)
		assert.ErrorIs(t, err, bridge.ErrBridgeUnhealthy)
		assert.Contains(t, err.Error(), "not healthy")
	})
}

func TestBridge_Close(t *testing.T) {
	t.Run("normal close", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
		defer cancel()

		assert.NoError(t, b.Close(ctx))
		assert.Error(t, b.Healthy(ctx))
	})

	t.Run("double close", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		assert.NoError(t, b.Close(t.Context()))
		assert.ErrorIs(t, b.Close(t.Context()), bridge.ErrBridgeClosed)
	})

	t.Run("close never started bridge", func(t *testing.T) {
		assert.ErrorIs(t, (&bridge.Bridge{}).Close(t.Context()), bridge.ErrBridgeClosed)
	})

	t.Run("close stops children", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		q := queue.NewUnbounded[string]()
		f, err := bridge.Feed(b, helpers.UniqueSubject("test.close.children"), q)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
		defer cancel()
		require.NoError(t, b.Close(ctx))

		// The feeder was stopped by Close; stopping again is a no-op.
		assert.NoError(t, f.Stop(ctx))
	})
}

func TestBridge_Port(t *testing.T) {
	b := helpers.CreateTestBridge(t)
	assert.Greater(t, b.Port(), 0, "embedded server should run on a real port")
}

func TestBridge_ConcurrentOperations(t *testing.T) {
	t.Run("concurrent health checks", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		const numGoroutines = 10
		errChan := make(chan error, numGoroutines)

		for range numGoroutines {
			go func() {
				ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
				defer cancel()
				errChan <- b.Healthy(ctx)
			}()
		}

		for range numGoroutines {
			assert.NoError(t, <-errChan)
		}
	})

	t.Run("concurrent close operations", func(t *testing.T) {
		b := helpers.CreateTestBridge(t)

		const numGoroutines = 5
		errChan := make(chan error, numGoroutines)

		for range numGoroutines {
			go func() {
				ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
				defer cancel()
				errChan <- b.Close(ctx)
			}()
		}

		successCount := 0
		errorCount := 0
		for range numGoroutines {
			if err := <-errChan; err == nil {
				successCount++
			} else {
				errorCount++
			}
		}

		assert.Equal(t, 1, successCount, "Exactly one close should succeed")
		assert.Equal(t, numGoroutines-1, errorCount, "Rest should fail")
	})
}
