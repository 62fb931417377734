package services

import (
	"errors"
	"fmt"

	"github.com/stockpulse/stockpulse/internal/models"
	"gorm.io/gorm"
)

// PreferenceService handles per-user notification delivery preferences
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// GetOrCreate resolves the preference for a (user, category) pair,
// materializing the defaults on first resolution if none exists yet.
func (s *PreferenceService) GetOrCreate(userID string, category models.NotificationCategory) (*models.UserNotificationPreference, error) {
	var pref models.UserNotificationPreference

	err := s.db.Where("user_id = ? AND category = ?", userID, category).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query preference: %w", err)
	}

	pref = models.DefaultPreference(userID, category)
	if err := s.db.Create(&pref).Error; err != nil {
		// Lost a race with a concurrent resolution for the same pair; the
		// unique index rejected the insert, so read the winner's row.
		var existing models.UserNotificationPreference
		if readErr := s.db.Where("user_id = ? AND category = ?", userID, category).First(&existing).Error; readErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}
	return &pref, nil
}

// ListByUser resolves preferences for every known category, materializing
// defaults where the user never configured one.
func (s *PreferenceService) ListByUser(userID string) ([]models.UserNotificationPreference, error) {
	prefs := make([]models.UserNotificationPreference, 0, len(models.AllCategories))
	for _, category := range models.AllCategories {
		pref, err := s.GetOrCreate(userID, category)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, *pref)
	}
	return prefs, nil
}

// Update replaces the channel opt-ins for one (user, category) pair
func (s *PreferenceService) Update(userID string, category models.NotificationCategory, inApp, email, push bool) (*models.UserNotificationPreference, error) {
	pref, err := s.GetOrCreate(userID, category)
	if err != nil {
		return nil, err
	}

	pref.InAppEnabled = inApp
	pref.EmailEnabled = email
	pref.PushEnabled = push
	if err := s.db.Save(pref).Error; err != nil {
		return nil, fmt.Errorf("failed to update preference: %w", err)
	}
	return pref, nil
}
