package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

const (
	memoryQueueDepth = 256
	// maxDeliveries bounds redelivery of a message whose handler keeps
	// failing; past the cap the message is dead-lettered, never dropped.
	maxDeliveries = 3
)

type memoryMessage struct {
	key        string
	payload    []byte
	deliveries int
}

// MemoryChannel is an in-process Channel used in development mode and in
// tests. It keeps the same at-least-once contract as the Kafka adapter:
// handler errors requeue the message, malformed messages are dead-lettered.
type MemoryChannel struct {
	mu     sync.Mutex
	queues map[string]chan memoryMessage
	closed bool
}

// NewMemoryChannel creates an empty in-process channel
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{queues: make(map[string]chan memoryMessage)}
}

func (c *MemoryChannel) queue(name string) chan memoryMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[name]
	if !ok {
		q = make(chan memoryMessage, memoryQueueDepth)
		c.queues[name] = q
	}
	return q
}

// Publish buffers one message on the named queue
func (c *MemoryChannel) Publish(_ context.Context, queue, key string, payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("channel closed")
	}
	c.mu.Unlock()

	select {
	case c.queue(queue) <- memoryMessage{key: key, payload: payload, deliveries: 0}:
		return nil
	default:
		return fmt.Errorf("queue %s is full", queue)
	}
}

// Subscribe consumes the queue until ctx is cancelled
func (c *MemoryChannel) Subscribe(ctx context.Context, queue string, handler Handler) error {
	q := c.queue(queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			msg.deliveries++
			err := handler(ctx, msg.payload)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrMalformedMessage) {
				log.Printf("Dead-lettering message from %s: %v", queue, err)
				c.deadLetter(queue, msg)
				continue
			}
			if msg.deliveries >= maxDeliveries {
				log.Printf("Message from %s exhausted %d deliveries: %v", queue, msg.deliveries, err)
				c.deadLetter(queue, msg)
				continue
			}
			log.Printf("Handler failed for %s, requeueing: %v", queue, err)
			select {
			case q <- msg:
			default:
				log.Printf("Queue %s full, dropping redelivery", queue)
			}
		}
	}
}

func (c *MemoryChannel) deadLetter(queue string, msg memoryMessage) {
	select {
	case c.queue(DeadLetterQueue(queue)) <- memoryMessage{key: msg.key, payload: msg.payload}:
	default:
		log.Printf("Dead-letter queue for %s full, dropping message", queue)
	}
}

// Pending reports the number of buffered messages on a queue
func (c *MemoryChannel) Pending(queue string) int {
	return len(c.queue(queue))
}

// Close marks the channel closed for publishing
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
