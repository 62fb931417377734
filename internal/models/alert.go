package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertCondition is the kind of price condition a user can set on a symbol.
type AlertCondition string

const (
	ConditionAbovePrice  AlertCondition = "above_price"
	ConditionBelowPrice  AlertCondition = "below_price"
	ConditionPercentGain AlertCondition = "percent_gain"
	ConditionPercentLoss AlertCondition = "percent_loss"
)

// Valid reports whether the condition kind is one of the known encodings.
func (c AlertCondition) Valid() bool {
	switch c {
	case ConditionAbovePrice, ConditionBelowPrice, ConditionPercentGain, ConditionPercentLoss:
		return true
	}
	return false
}

// Satisfied evaluates the condition against an observed quote. Price
// conditions compare the last price to the target value; percent conditions
// compare the 24h change percent to the target (negated for losses).
func (c AlertCondition) Satisfied(target, price, changePercent decimal.Decimal) bool {
	switch c {
	case ConditionAbovePrice:
		return price.GreaterThanOrEqual(target)
	case ConditionBelowPrice:
		return price.LessThanOrEqual(target)
	case ConditionPercentGain:
		return changePercent.GreaterThanOrEqual(target)
	case ConditionPercentLoss:
		return changePercent.LessThanOrEqual(target.Neg())
	}
	return false
}

// AlertStatus is the lifecycle state of a price alert. Triggered and
// Disabled are terminal; an alert never re-arms.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusTriggered AlertStatus = "triggered"
	AlertStatusDisabled  AlertStatus = "disabled"
)

// PriceAlert represents one user-authored condition on a symbol within a watchlist
type PriceAlert struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	WatchlistID uint            `json:"watchlist_id" gorm:"index:idx_alerts_watchlist_symbol"`
	UserID      string          `json:"user_id" gorm:"index"`
	Symbol      string          `json:"symbol" gorm:"index:idx_alerts_watchlist_symbol"`
	Condition   AlertCondition  `json:"condition" gorm:"type:varchar(20)"`
	TargetValue decimal.Decimal `json:"target_value" gorm:"type:decimal(20,8)"`
	Status      AlertStatus     `json:"status" gorm:"type:varchar(10);default:'active';index"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	TriggeredAt *time.Time      `json:"triggered_at,omitempty"`
	DeletedAt   gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}
