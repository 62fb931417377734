package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/services"
)

// PreferenceUpdate is one entry of a bulk preference update
type PreferenceUpdate struct {
	Category     string `json:"category" binding:"required"`
	InAppEnabled bool   `json:"in_app_enabled"`
	EmailEnabled bool   `json:"email_enabled"`
	PushEnabled  bool   `json:"push_enabled"`
}

// NotificationHandler handles the notification inbox and preference endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
	preferenceService   *services.PreferenceService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService *services.NotificationService,
	preferenceService *services.PreferenceService,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		preferenceService:   preferenceService,
	}
}

// GetNotifications lists a user's notifications with pagination
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, total, err := h.notificationService.GetNotificationsByUser(userID, page, limit)
	if err != nil {
		log.Printf("Failed to list notifications for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// MarkRead acknowledges a sent notification
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	if _, err := h.notificationService.GetNotification(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notification"})
		return
	}

	read, err := h.notificationService.MarkRead(uint(id), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}
	if !read {
		c.JSON(http.StatusConflict, gin.H{"error": "Notification is not in a readable state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// GetPreferences lists a user's per-category delivery preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID := c.Param("user_id")

	prefs, err := h.preferenceService.ListByUser(userID)
	if err != nil {
		log.Printf("Failed to list preferences for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences bulk-updates a user's delivery preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID := c.Param("user_id")

	var updates []PreferenceUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied := make([]models.UserNotificationPreference, 0, len(updates))
	for _, update := range updates {
		category := models.NotificationCategory(update.Category)
		if !category.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category: " + update.Category})
			return
		}

		pref, err := h.preferenceService.Update(userID, category, update.InAppEnabled, update.EmailEnabled, update.PushEnabled)
		if err != nil {
			log.Printf("Failed to update %s preference for user %s: %v", category, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
			return
		}
		applied = append(applied, *pref)
	}

	c.JSON(http.StatusOK, gin.H{"preferences": applied})
}
