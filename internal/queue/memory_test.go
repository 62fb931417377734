package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChannelDelivery(t *testing.T) {
	channel := NewMemoryChannel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received [][]byte
	go channel.Subscribe(ctx, "price-alerts", func(_ context.Context, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
		return nil
	})

	require.NoError(t, channel.Publish(ctx, "price-alerts", "user-1", []byte("one")))
	require.NoError(t, channel.Publish(ctx, "price-alerts", "user-1", []byte("two")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// A single producer's sequential publishes keep their order.
	mu.Lock()
	assert.Equal(t, []byte("one"), received[0])
	assert.Equal(t, []byte("two"), received[1])
	mu.Unlock()
}

func TestMemoryChannelRedelivery(t *testing.T) {
	channel := NewMemoryChannel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	attempts := 0
	go channel.Subscribe(ctx, "price-alerts", func(_ context.Context, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, channel.Publish(ctx, "price-alerts", "user-1", []byte("payload")))

	// At-least-once: the message is redelivered until the handler succeeds.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, channel.Pending("price-alerts"))
}

func TestMemoryChannelDeadLetter(t *testing.T) {
	channel := NewMemoryChannel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("malformed messages go straight to the dead-letter queue", func(t *testing.T) {
		go channel.Subscribe(ctx, "price-alerts", func(_ context.Context, _ []byte) error {
			return fmt.Errorf("%w: missing user id", ErrMalformedMessage)
		})

		require.NoError(t, channel.Publish(ctx, "price-alerts", "user-1", []byte("bad")))

		require.Eventually(t, func() bool {
			return channel.Pending(DeadLetterQueue("price-alerts")) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("persistent transient failures exhaust redelivery", func(t *testing.T) {
		go channel.Subscribe(ctx, "portfolio-updates", func(_ context.Context, _ []byte) error {
			return errors.New("always failing")
		})

		require.NoError(t, channel.Publish(ctx, "portfolio-updates", "user-1", []byte("doomed")))

		require.Eventually(t, func() bool {
			return channel.Pending(DeadLetterQueue("portfolio-updates")) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestMemoryChannelClose(t *testing.T) {
	channel := NewMemoryChannel()
	require.NoError(t, channel.Close())
	assert.Error(t, channel.Publish(context.Background(), "price-alerts", "k", []byte("v")))
}

func TestDeadLetterQueueName(t *testing.T) {
	assert.Equal(t, "price-alerts.dead-letter", DeadLetterQueue(QueuePriceAlerts))
}
