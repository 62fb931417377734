package services

import (
	"time"

	"github.com/stockpulse/stockpulse/internal/models"
	"gorm.io/gorm"
)

// NotificationService handles notification persistence and status transitions
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotification persists a new notification record
func (s *NotificationService) CreateNotification(n *models.Notification) error {
	if n.Status == "" {
		n.Status = models.StatusPending
	}
	return s.db.Create(n).Error
}

// GetNotification retrieves a notification by ID
func (s *NotificationService) GetNotification(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotificationsByUser retrieves a user's notifications with pagination
func (s *NotificationService) GetNotificationsByUser(userID string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkSent records a successful delivery. Valid from pending or failed; the
// failed case is the retry path, which also clears the stored error.
func (s *NotificationService) MarkSent(id uint, at time.Time) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND status IN ?", id, []models.NotificationStatus{models.StatusPending, models.StatusFailed}).
		Updates(map[string]interface{}{
			"status":     models.StatusSent,
			"sent_at":    at,
			"last_error": "",
		}).Error
}

// MarkFailed records an initial delivery failure
func (s *NotificationService) MarkFailed(id uint, lastError string) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"last_error": lastError,
		}).Error
}

// IncrementRetry records another failed delivery attempt during a sweep
func (s *NotificationService) IncrementRetry(id uint, lastError string) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, models.StatusFailed).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  lastError,
		}).Error
}

// MarkRead records the client acknowledgment. Only a sent notification can
// be read.
func (s *NotificationService) MarkRead(id uint, at time.Time) (bool, error) {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, models.StatusSent).
		Updates(map[string]interface{}{
			"status":  models.StatusRead,
			"read_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListRetryable selects failed notifications still inside the retry policy:
// fewer than maxRetries attempts and created after the window cutoff.
func (s *NotificationService) ListRetryable(createdAfter time.Time, maxRetries int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("status = ? AND retry_count < ? AND created_at > ?", models.StatusFailed, maxRetries, createdAfter).
		Find(&notifications).Error
	return notifications, err
}

// DeleteReadBefore removes read notifications acknowledged before the cutoff.
// Returns the number of rows removed; zero rows is a successful no-op.
func (s *NotificationService) DeleteReadBefore(cutoff time.Time) (int64, error) {
	res := s.db.Unscoped().
		Where("status = ? AND read_at < ?", models.StatusRead, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteCreatedBefore removes notifications of any status older than the
// unconditional retention ceiling.
func (s *NotificationService) DeleteCreatedBefore(cutoff time.Time) (int64, error) {
	res := s.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
