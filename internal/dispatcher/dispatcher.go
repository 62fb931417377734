package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"

	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/queue"
	"github.com/stockpulse/stockpulse/internal/services"
)

// Dispatcher converts consumed events into persisted notifications and
// attempts delivery per the user's channel preferences. Handlers are safe
// under concurrent invocation for different message ids; duplicate delivery
// of the same message id may create duplicate notification rows
// (at-least-once, no dedup by message id).
type Dispatcher struct {
	notifications *services.NotificationService
	preferences   *services.PreferenceService
	clock         clockwork.Clock
	deliverers    map[models.NotificationMethod]Deliverer
}

// New creates a dispatcher with the given delivery channels
func New(
	notifications *services.NotificationService,
	preferences *services.PreferenceService,
	clock clockwork.Clock,
	deliverers ...Deliverer,
) *Dispatcher {
	byMethod := make(map[models.NotificationMethod]Deliverer, len(deliverers))
	for _, d := range deliverers {
		byMethod[d.Method()] = d
	}
	return &Dispatcher{
		notifications: notifications,
		preferences:   preferences,
		clock:         clock,
		deliverers:    byMethod,
	}
}

// HandleTriggerEvent is the queue handler for the price-alerts queue.
func (d *Dispatcher) HandleTriggerEvent(ctx context.Context, payload []byte) error {
	var event models.TriggerEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
	}
	if event.UserID == "" || event.AlertID == 0 || event.Symbol == "" {
		return fmt.Errorf("%w: trigger event missing required fields (message %s)", queue.ErrMalformedMessage, event.MessageID)
	}

	title := fmt.Sprintf("Price alert: %s", event.Symbol)
	return d.dispatch(ctx, event.UserID, models.CategoryPriceAlert, title, triggerMessage(event), string(payload))
}

// ChannelEventHandler returns the queue handler for one of the generic
// event queues (portfolio updates, watchlist updates, announcements).
func (d *Dispatcher) ChannelEventHandler(category models.NotificationCategory) queue.Handler {
	return func(ctx context.Context, payload []byte) error {
		var event models.ChannelEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
		}
		if event.UserID == "" || event.Title == "" {
			return fmt.Errorf("%w: channel event missing required fields (message %s)", queue.ErrMalformedMessage, event.MessageID)
		}
		return d.dispatch(ctx, event.UserID, category, event.Title, event.Message, event.Data)
	}
}

// dispatch persists one notification per enabled channel and attempts
// delivery. Delivery failures are recorded on the row (the sweep owns
// retries); only store failures propagate, so the transport redelivers.
func (d *Dispatcher) dispatch(
	ctx context.Context,
	userID string,
	category models.NotificationCategory,
	title, message, data string,
) error {
	pref, err := d.preferences.GetOrCreate(userID, category)
	if err != nil {
		return fmt.Errorf("failed to resolve preference for user %s: %w", userID, err)
	}

	for _, method := range models.MethodOrder {
		if !pref.Enabled(method) {
			continue
		}
		deliverer, ok := d.deliverers[method]
		if !ok {
			continue
		}

		n := &models.Notification{
			UserID:   userID,
			Category: category,
			Title:    title,
			Message:  message,
			Data:     data,
			Status:   models.StatusPending,
			Method:   method,
		}
		if err := d.notifications.CreateNotification(n); err != nil {
			return fmt.Errorf("failed to persist %s notification: %w", method, err)
		}

		if err := deliverer.Deliver(ctx, n); err != nil {
			log.Printf("Delivery via %s failed for notification %d: %v", method, n.ID, err)
			metrics.NotificationsDispatched.WithLabelValues(string(method), string(models.StatusFailed)).Inc()
			if err := d.notifications.MarkFailed(n.ID, err.Error()); err != nil {
				return fmt.Errorf("failed to mark notification %d failed: %w", n.ID, err)
			}
			continue
		}

		metrics.NotificationsDispatched.WithLabelValues(string(method), string(models.StatusSent)).Inc()
		if err := d.notifications.MarkSent(n.ID, d.clock.Now()); err != nil {
			return fmt.Errorf("failed to mark notification %d sent: %w", n.ID, err)
		}
	}

	return nil
}

// Redeliver re-attempts delivery of a previously failed notification. Status
// bookkeeping stays with the caller (the reconciliation sweep).
func (d *Dispatcher) Redeliver(ctx context.Context, n *models.Notification) error {
	deliverer, ok := d.deliverers[n.Method]
	if !ok {
		return fmt.Errorf("no delivery channel for method %s", n.Method)
	}
	return deliverer.Deliver(ctx, n)
}

func triggerMessage(event models.TriggerEvent) string {
	switch event.Condition {
	case models.ConditionAbovePrice:
		return fmt.Sprintf("%s reached %s, at or above your target of %s",
			event.Symbol, event.ObservedPrice, event.TargetValue)
	case models.ConditionBelowPrice:
		return fmt.Sprintf("%s fell to %s, at or below your target of %s",
			event.Symbol, event.ObservedPrice, event.TargetValue)
	case models.ConditionPercentGain:
		return fmt.Sprintf("%s is up %s%% over 24h, at or above your %s%% threshold (current price %s)",
			event.Symbol, event.ObservedChangePercent, event.TargetValue, event.ObservedPrice)
	case models.ConditionPercentLoss:
		return fmt.Sprintf("%s is down %s%% over 24h, at or beyond your %s%% threshold (current price %s)",
			event.Symbol, event.ObservedChangePercent.Abs(), event.TargetValue, event.ObservedPrice)
	}
	return fmt.Sprintf("%s condition %s satisfied at price %s", event.Symbol, event.Condition, event.ObservedPrice)
}
