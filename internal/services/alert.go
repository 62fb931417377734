package services

import (
	"fmt"
	"time"

	"github.com/stockpulse/stockpulse/internal/models"
	"gorm.io/gorm"
)

// AlertService handles price alert persistence and state transitions
type AlertService struct {
	db *gorm.DB
}

// NewAlertService creates a new alert service
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// CreateAlert saves a new price alert
func (s *AlertService) CreateAlert(alert *models.PriceAlert) error {
	if !alert.Condition.Valid() {
		return fmt.Errorf("unknown alert condition: %s", alert.Condition)
	}
	if !alert.TargetValue.IsPositive() {
		return fmt.Errorf("target value must be positive, got %s", alert.TargetValue)
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}
	return s.db.Create(alert).Error
}

// GetAlert retrieves an alert by ID
func (s *AlertService) GetAlert(id uint) (*models.PriceAlert, error) {
	var alert models.PriceAlert
	if err := s.db.First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetAlertsByWatchlist retrieves alerts for a watchlist with optional status filter
func (s *AlertService) GetAlertsByWatchlist(watchlistID uint, status string) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	query := s.db.Where("watchlist_id = ?", watchlistID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// ListActive retrieves every alert eligible for evaluation
func (s *AlertService) ListActive() ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	err := s.db.Where("status = ?", models.AlertStatusActive).Find(&alerts).Error
	return alerts, err
}

// Trigger transitions an alert from active to triggered. The update is a
// single conditional row write guarded by the current status, so concurrent
// evaluation cycles can never double-publish for the same alert: exactly one
// caller observes the transition.
func (s *AlertService) Trigger(id uint, at time.Time) (bool, error) {
	res := s.db.Model(&models.PriceAlert{}).
		Where("id = ? AND status = ?", id, models.AlertStatusActive).
		Updates(map[string]interface{}{
			"status":       models.AlertStatusTriggered,
			"triggered_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Disable transitions an alert from active to disabled. Triggered alerts
// stay triggered; disabling one is a no-op.
func (s *AlertService) Disable(id uint) (bool, error) {
	res := s.db.Model(&models.PriceAlert{}).
		Where("id = ? AND status = ?", id, models.AlertStatusActive).
		Update("status", models.AlertStatusDisabled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteAlert soft-deletes an alert
func (s *AlertService) DeleteAlert(id uint) error {
	return s.db.Delete(&models.PriceAlert{}, id).Error
}
