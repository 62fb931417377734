package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/services"
)

// Redeliverer re-attempts delivery of a failed notification over its
// original channel. Implemented by the dispatcher.
type Redeliverer interface {
	Redeliver(ctx context.Context, n *models.Notification) error
}

// Policy bounds the sweep's retry and retention behavior.
type Policy struct {
	MaxRetries    int
	RetryWindow   time.Duration
	ReadRetention time.Duration
	MaxRetention  time.Duration
}

// DefaultPolicy mirrors the production defaults: 3 attempts within 24h,
// read rows kept 30 days, everything capped at 90 days.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    3,
		RetryWindow:   24 * time.Hour,
		ReadRetention: 30 * 24 * time.Hour,
		MaxRetention:  90 * 24 * time.Hour,
	}
}

// Sweep reconciles failed deliveries and prunes notification history on a
// fixed interval, independent of the message flow.
type Sweep struct {
	notifications *services.NotificationService
	redeliverer   Redeliverer
	policy        Policy
	interval      time.Duration
	clock         clockwork.Clock
}

// New creates a reconciliation sweep
func New(
	notifications *services.NotificationService,
	redeliverer Redeliverer,
	policy Policy,
	interval time.Duration,
	clock clockwork.Clock,
) *Sweep {
	return &Sweep{
		notifications: notifications,
		redeliverer:   redeliverer,
		policy:        policy,
		interval:      interval,
		clock:         clock,
	}
}

// Run executes retry and cleanup cycles until ctx is cancelled
func (s *Sweep) Run(ctx context.Context) {
	log.Printf("Reconciliation sweep started, running every %s", s.interval)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciliation sweep stopped")
			return
		case <-ticker.Chan():
			if err := s.RetryCycle(ctx); err != nil {
				log.Printf("Retry cycle failed: %v", err)
			}
			if err := s.CleanupCycle(ctx); err != nil {
				log.Printf("Cleanup cycle failed: %v", err)
			}
		}
	}
}

// RetryCycle re-attempts delivery of failed notifications that are inside
// the retry policy. A record that exhausts its attempts is left failed
// permanently and only visible to operators through the logs.
func (s *Sweep) RetryCycle(ctx context.Context) error {
	now := s.clock.Now()
	retryable, err := s.notifications.ListRetryable(now.Add(-s.policy.RetryWindow), s.policy.MaxRetries)
	if err != nil {
		return fmt.Errorf("failed to list retryable notifications: %w", err)
	}

	for i := range retryable {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n := &retryable[i]

		if err := s.redeliverer.Redeliver(ctx, n); err != nil {
			metrics.DeliveriesRetried.WithLabelValues(string(models.StatusFailed)).Inc()
			if n.RetryCount+1 >= s.policy.MaxRetries {
				log.Printf("Notification %d permanently failed after %d attempts: %v", n.ID, n.RetryCount+1, err)
			}
			if updateErr := s.notifications.IncrementRetry(n.ID, err.Error()); updateErr != nil {
				log.Printf("Failed to record retry for notification %d: %v", n.ID, updateErr)
			}
			continue
		}

		metrics.DeliveriesRetried.WithLabelValues(string(models.StatusSent)).Inc()
		if err := s.notifications.MarkSent(n.ID, s.clock.Now()); err != nil {
			log.Printf("Failed to mark notification %d sent after retry: %v", n.ID, err)
		}
	}
	return nil
}

// CleanupCycle removes read notifications older than the read retention and
// any notification older than the unconditional retention ceiling. Both are
// batched set-based deletes; a pass with nothing eligible is a no-op.
func (s *Sweep) CleanupCycle(_ context.Context) error {
	now := s.clock.Now()

	readRemoved, err := s.notifications.DeleteReadBefore(now.Add(-s.policy.ReadRetention))
	if err != nil {
		return fmt.Errorf("failed to prune read notifications: %w", err)
	}

	expiredRemoved, err := s.notifications.DeleteCreatedBefore(now.Add(-s.policy.MaxRetention))
	if err != nil {
		return fmt.Errorf("failed to prune expired notifications: %w", err)
	}

	if readRemoved > 0 || expiredRemoved > 0 {
		log.Printf("Cleanup removed %d read and %d expired notifications", readRemoved, expiredRemoved)
	}
	return nil
}
