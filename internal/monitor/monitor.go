package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stockpulse/stockpulse/internal/hub"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/pricefeed"
	"github.com/stockpulse/stockpulse/internal/queue"
	"github.com/stockpulse/stockpulse/internal/services"
)

// AlertMonitor periodically evaluates active price alerts against current
// market data, transitions satisfied alerts to triggered, and publishes one
// trigger event per transition.
type AlertMonitor struct {
	alerts   *services.AlertService
	feed     pricefeed.Feed
	channel  queue.Channel
	hub      *hub.Hub // optional; nil disables price-update pushes
	interval time.Duration
	clock    clockwork.Clock
}

// New creates an alert monitor
func New(
	alerts *services.AlertService,
	feed pricefeed.Feed,
	channel queue.Channel,
	h *hub.Hub,
	interval time.Duration,
	clock clockwork.Clock,
) *AlertMonitor {
	return &AlertMonitor{
		alerts:   alerts,
		feed:     feed,
		channel:  channel,
		hub:      h,
		interval: interval,
		clock:    clock,
	}
}

// Run evaluates on a fixed interval until ctx is cancelled
func (m *AlertMonitor) Run(ctx context.Context) {
	log.Printf("Alert monitor started, evaluating every %s", m.interval)
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Alert monitor stopped")
			return
		case <-ticker.Chan():
			if err := m.EvaluateCycle(ctx); err != nil {
				log.Printf("Evaluation cycle failed: %v", err)
			}
		}
	}
}

// EvaluateCycle runs a single pass over all active alerts. One alert's
// failure never aborts the cycle for the others; per-alert errors are
// logged and skipped.
func (m *AlertMonitor) EvaluateCycle(ctx context.Context) error {
	alerts, err := m.alerts.ListActive()
	if err != nil {
		return fmt.Errorf("failed to list active alerts: %w", err)
	}

	for i := range alerts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.evaluateAlert(ctx, &alerts[i]); err != nil {
			log.Printf("Failed to evaluate alert %d (%s): %v", alerts[i].ID, alerts[i].Symbol, err)
		}
	}
	return nil
}

func (m *AlertMonitor) evaluateAlert(ctx context.Context, alert *models.PriceAlert) error {
	quote, err := m.feed.GetCurrentPrice(ctx, alert.Symbol)
	if err != nil {
		// No quote this cycle: skip the alert, try again next interval.
		log.Printf("No quote for %s, skipping alert %d: %v", alert.Symbol, alert.ID, err)
		return nil
	}

	if m.hub != nil {
		m.hub.PushPriceUpdate(alert.Symbol, quote)
	}

	if !alert.Condition.Satisfied(alert.TargetValue, quote.Price, quote.ChangePercent) {
		return nil
	}

	now := m.clock.Now()
	triggered, err := m.alerts.Trigger(alert.ID, now)
	if err != nil {
		return fmt.Errorf("failed to transition alert: %w", err)
	}
	if !triggered {
		// Another cycle or a user action won the transition; nothing to
		// publish.
		return nil
	}
	metrics.AlertsTriggered.Inc()
	log.Printf("Alert %d triggered: %s %s %s at %s", alert.ID, alert.Symbol, alert.Condition, alert.TargetValue, quote.Price)

	event := models.NewTriggerEvent(alert, quote.Price, quote.ChangePercent, now)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode trigger event: %w", err)
	}

	// The alert stays triggered even when the publish fails; the event is
	// lost for this attempt and never re-derived. Producer-side at-most-once.
	if err := m.channel.Publish(ctx, queue.QueuePriceAlerts, event.UserID, payload); err != nil {
		return fmt.Errorf("failed to publish trigger event for alert %d: %w", alert.ID, err)
	}
	return nil
}
