package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/services"
)

// CreateAlertRequest is the payload for creating a price alert
type CreateAlertRequest struct {
	UserID      string          `json:"user_id" binding:"required"`
	Symbol      string          `json:"symbol" binding:"required"`
	Condition   string          `json:"condition" binding:"required"`
	TargetValue decimal.Decimal `json:"target_value"`
	Notes       string          `json:"notes"`
}

// AlertHandler handles price alert management endpoints
type AlertHandler struct {
	alertService *services.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// CreateAlert creates a price alert inside a watchlist
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	watchlistID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid watchlist id"})
		return
	}

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition := models.AlertCondition(req.Condition)
	if !condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown condition: " + req.Condition})
		return
	}
	if !req.TargetValue.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target value must be positive"})
		return
	}

	alert := &models.PriceAlert{
		WatchlistID: uint(watchlistID),
		UserID:      req.UserID,
		Symbol:      req.Symbol,
		Condition:   condition,
		TargetValue: req.TargetValue,
		Status:      models.AlertStatusActive,
		Notes:       req.Notes,
	}

	if err := h.alertService.CreateAlert(alert); err != nil {
		log.Printf("Failed to create alert: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, alert)
}

// GetAlerts lists a watchlist's alerts with an optional status filter
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	watchlistID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid watchlist id"})
		return
	}

	status := c.Query("status")
	alerts, err := h.alertService.GetAlertsByWatchlist(uint(watchlistID), status)
	if err != nil {
		log.Printf("Failed to list alerts for watchlist %d: %v", watchlistID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// DisableAlert transitions an active alert to disabled
func (h *AlertHandler) DisableAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	if _, err := h.alertService.GetAlert(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alert"})
		return
	}

	disabled, err := h.alertService.Disable(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable alert"})
		return
	}
	if !disabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Alert is not active"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "disabled"})
}

// DeleteAlert removes an alert
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	if err := h.alertService.DeleteAlert(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
