package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TriggerEvent is the immutable fact published on the price-alerts queue when
// an alert condition is satisfied. Produced exactly once per alert transition
// by the monitor; consumed at-least-once by the dispatcher.
type TriggerEvent struct {
	MessageID             string          `json:"message_id"`
	CorrelationID         string          `json:"correlation_id"`
	Timestamp             time.Time       `json:"timestamp"`
	UserID                string          `json:"user_id"`
	AlertID               uint            `json:"alert_id"`
	Symbol                string          `json:"symbol"`
	Condition             AlertCondition  `json:"condition"`
	TargetValue           decimal.Decimal `json:"target_value"`
	ObservedPrice         decimal.Decimal `json:"observed_price"`
	ObservedChangePercent decimal.Decimal `json:"observed_change_percent"`
	Notes                 string          `json:"notes,omitempty"`
}

// NewTriggerEvent builds the event for a freshly triggered alert.
func NewTriggerEvent(alert *PriceAlert, price, changePercent decimal.Decimal, at time.Time) TriggerEvent {
	return TriggerEvent{
		MessageID:             uuid.NewString(),
		CorrelationID:         uuid.NewString(),
		Timestamp:             at,
		UserID:                alert.UserID,
		AlertID:               alert.ID,
		Symbol:                alert.Symbol,
		Condition:             alert.Condition,
		TargetValue:           alert.TargetValue,
		ObservedPrice:         price,
		ObservedChangePercent: changePercent,
		Notes:                 alert.Notes,
	}
}

// ChannelEvent is the generic envelope for the non-price queues
// (portfolio-updates, watchlist-updates, system-announcements). The producer
// supplies ready-to-display title and message text.
type ChannelEvent struct {
	MessageID     string               `json:"message_id"`
	CorrelationID string               `json:"correlation_id"`
	Timestamp     time.Time            `json:"timestamp"`
	UserID        string               `json:"user_id"`
	Category      NotificationCategory `json:"category"`
	Title         string               `json:"title"`
	Message       string               `json:"message"`
	Data          string               `json:"data,omitempty"`
}
