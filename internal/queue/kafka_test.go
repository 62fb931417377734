package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverWithRetry(t *testing.T) {
	t.Run("transient failures are retried in place until success", func(t *testing.T) {
		attempts := 0
		handler := func(_ context.Context, _ []byte) error {
			attempts++
			if attempts < 3 {
				return errors.New("store unavailable")
			}
			return nil
		}

		err := deliverWithRetry(context.Background(), handler, []byte("payload"), 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("exhausted attempts return the last error", func(t *testing.T) {
		attempts := 0
		handler := func(_ context.Context, _ []byte) error {
			attempts++
			return fmt.Errorf("attempt %d failed", attempts)
		}

		err := deliverWithRetry(context.Background(), handler, []byte("payload"), 3, time.Millisecond)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformedMessage)
		assert.Contains(t, err.Error(), "attempt 3")
		assert.Equal(t, 3, attempts)
	})

	t.Run("malformed messages are never retried", func(t *testing.T) {
		attempts := 0
		handler := func(_ context.Context, _ []byte) error {
			attempts++
			return fmt.Errorf("%w: missing user id", ErrMalformedMessage)
		}

		err := deliverWithRetry(context.Background(), handler, []byte("payload"), 3, time.Millisecond)
		assert.ErrorIs(t, err, ErrMalformedMessage)
		assert.Equal(t, 1, attempts)
	})

	t.Run("cancellation during backoff stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		handler := func(_ context.Context, _ []byte) error {
			attempts++
			cancel()
			return errors.New("store unavailable")
		}

		err := deliverWithRetry(ctx, handler, []byte("payload"), 3, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success on first attempt calls the handler once", func(t *testing.T) {
		attempts := 0
		handler := func(_ context.Context, _ []byte) error {
			attempts++
			return nil
		}

		require.NoError(t, deliverWithRetry(context.Background(), handler, []byte("payload"), 3, time.Millisecond))
		assert.Equal(t, 1, attempts)
	})
}
