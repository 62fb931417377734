package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationCategory groups notifications for per-user channel preferences.
type NotificationCategory string

const (
	CategoryPriceAlert         NotificationCategory = "price_alert"
	CategoryPortfolioUpdate    NotificationCategory = "portfolio_update"
	CategorySystemAnnouncement NotificationCategory = "system_announcement"
	CategoryMarketNews         NotificationCategory = "market_news"
	CategoryWatchlistUpdate    NotificationCategory = "watchlist_update"
)

// AllCategories lists every known category, in preference-listing order.
var AllCategories = []NotificationCategory{
	CategoryPriceAlert,
	CategoryPortfolioUpdate,
	CategorySystemAnnouncement,
	CategoryMarketNews,
	CategoryWatchlistUpdate,
}

// Valid reports whether the category is a known encoding.
func (c NotificationCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NotificationStatus is the delivery state of one notification record.
// Transitions: pending -> sent, pending -> failed, failed -> sent (retry),
// sent -> read. Read implies a prior sent.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
	StatusRead    NotificationStatus = "read"
)

// NotificationMethod is the channel a notification is delivered through.
type NotificationMethod string

const (
	MethodInApp NotificationMethod = "in_app"
	MethodEmail NotificationMethod = "email"
	MethodPush  NotificationMethod = "push"
)

// MethodOrder is the order channels are resolved in when dispatching.
var MethodOrder = []NotificationMethod{MethodInApp, MethodEmail, MethodPush}

// Notification is a durable record of one delivery attempt outcome for one
// user via one channel, independent of whether the channel send succeeded.
type Notification struct {
	ID         uint                 `json:"id" gorm:"primaryKey"`
	UserID     string               `json:"user_id" gorm:"index:idx_notifications_user_created"`
	Category   NotificationCategory `json:"category" gorm:"type:varchar(30)"`
	Title      string               `json:"title"`
	Message    string               `json:"message" gorm:"type:text"`
	Data       string               `json:"data,omitempty" gorm:"type:text"`
	Status     NotificationStatus   `json:"status" gorm:"type:varchar(10);default:'pending';index:idx_notifications_status_created"`
	Method     NotificationMethod   `json:"method" gorm:"type:varchar(10)"`
	RetryCount int                  `json:"retry_count" gorm:"default:0"`
	LastError  string               `json:"last_error,omitempty"`
	CreatedAt  time.Time            `json:"created_at" gorm:"index:idx_notifications_user_created;index:idx_notifications_status_created"`
	UpdatedAt  time.Time            `json:"updated_at"`
	SentAt     *time.Time           `json:"sent_at,omitempty"`
	ReadAt     *time.Time           `json:"read_at,omitempty"`
	DeletedAt  gorm.DeletedAt       `json:"deleted_at,omitempty" gorm:"index"`
}

// UserNotificationPreference is the per-(user, category) channel opt-in.
// Unique per (user_id, category); materialized lazily with defaults when a
// category is first resolved for a user.
type UserNotificationPreference struct {
	ID           uint                 `json:"id" gorm:"primaryKey"`
	UserID       string               `json:"user_id" gorm:"uniqueIndex:idx_prefs_user_category"`
	Category     NotificationCategory `json:"category" gorm:"type:varchar(30);uniqueIndex:idx_prefs_user_category"`
	InAppEnabled bool                 `json:"in_app_enabled"`
	EmailEnabled bool                 `json:"email_enabled"`
	PushEnabled  bool                 `json:"push_enabled"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// DefaultPreference returns the preference applied when a user has never
// configured the category: in-app on, email on, push off.
func DefaultPreference(userID string, category NotificationCategory) UserNotificationPreference {
	return UserNotificationPreference{
		UserID:       userID,
		Category:     category,
		InAppEnabled: true,
		EmailEnabled: true,
		PushEnabled:  false,
	}
}

// Enabled reports whether the given delivery method is opted in.
func (p UserNotificationPreference) Enabled(method NotificationMethod) bool {
	switch method {
	case MethodInApp:
		return p.InAppEnabled
	case MethodEmail:
		return p.EmailEnabled
	case MethodPush:
		return p.PushEnabled
	}
	return false
}
