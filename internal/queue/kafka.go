package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaChannel implements Channel on Kafka topics. One shared writer serves
// every queue; each Subscribe call runs its own consumer-group reader, so a
// queue is processed by a single consumer at a time per group.
type KafkaChannel struct {
	brokers []string
	groupID string
	writer  *kafka.Writer
}

// NewKafkaChannel creates a Kafka-backed message channel
func NewKafkaChannel(brokers []string, groupID string) *KafkaChannel {
	return &KafkaChannel{
		brokers: brokers,
		groupID: groupID,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes one message to the topic backing the queue
func (c *KafkaChannel) Publish(ctx context.Context, queue, key string, payload []byte) error {
	return c.writer.WriteMessages(ctx, kafka.Message{
		Topic: queue,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	})
}

// Subscribe consumes the queue until ctx is cancelled. A message is handled
// to completion before the next one is fetched: transient handler errors are
// retried in place with backoff, and a message that exhausts its deliveries
// or is marked malformed is copied to the dead-letter topic. Only then is the
// offset committed, so committing a later message can never acknowledge an
// unhandled earlier one.
func (c *KafkaChannel) Subscribe(ctx context.Context, queue string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.brokers,
		GroupID: c.groupID,
		Topic:   queue,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("Failed to close reader for %s: %v", queue, err)
		}
	}()

	log.Printf("Consuming queue %s (group %s)", queue, c.groupID)

	backoff := time.Second
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Fetch from %s failed: %v", queue, err)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := deliverWithRetry(ctx, handler, msg.Value, maxDeliveries, time.Second); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrMalformedMessage) {
				log.Printf("Dead-lettering message from %s: %v", queue, err)
			} else {
				log.Printf("Message from %s exhausted %d deliveries, dead-lettering: %v", queue, maxDeliveries, err)
			}
			if dlqErr := c.Publish(ctx, DeadLetterQueue(queue), string(msg.Key), msg.Value); dlqErr != nil {
				// Offset stays uncommitted; the message is refetched.
				log.Printf("Failed to dead-letter message from %s: %v", queue, dlqErr)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("Commit failed for %s: %v", queue, err)
		}
	}
}

// deliverWithRetry invokes the handler for one payload, retrying transient
// failures in place with bounded backoff. Returns nil on success, a
// malformed-message error immediately without retrying, and otherwise the
// last handler error once attempts are exhausted.
func deliverWithRetry(ctx context.Context, handler Handler, payload []byte, attempts int, backoff time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = handler(ctx, payload)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrMalformedMessage) {
			return lastErr
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}
	return lastErr
}

// Close shuts down the shared writer
func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
