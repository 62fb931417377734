package queue

import (
	"context"
	"errors"
)

// Logical queue names. Each queue carries one event category and doubles as
// its routing key.
const (
	QueuePriceAlerts         = "price-alerts"
	QueuePortfolioUpdates    = "portfolio-updates"
	QueueWatchlistUpdates    = "watchlist-updates"
	QueueSystemAnnouncements = "system-announcements"
)

// ErrMalformedMessage marks a message that violates the event schema. A
// handler wrapping its error with this sentinel tells the transport to
// dead-letter the message instead of redelivering it: schema errors are a
// producer bug, not a transient failure.
var ErrMalformedMessage = errors.New("malformed message")

// Handler processes one delivered message. Returning nil acknowledges the
// message; any other error makes the transport redeliver it (at-least-once).
// A message that keeps failing past the transport's delivery cap is moved to
// the dead-letter queue, never silently dropped.
type Handler func(ctx context.Context, payload []byte) error

// Channel is the publish/consume transport boundary between the alert
// monitor and the notification dispatcher.
type Channel interface {
	// Publish sends a payload to a queue. Fire-and-forget from the
	// caller's perspective; the transport persists before returning.
	// Messages with equal keys preserve the producer's publish order.
	Publish(ctx context.Context, queue, key string, payload []byte) error

	// Subscribe consumes a queue with the handler until ctx is cancelled.
	// It blocks; run it on its own goroutine.
	Subscribe(ctx context.Context, queue string, handler Handler) error

	// Close releases transport resources.
	Close() error
}

// DeadLetterQueue returns the dead-letter queue name paired with a queue.
func DeadLetterQueue(queue string) string {
	return queue + ".dead-letter"
}
