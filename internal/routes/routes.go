package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockpulse/stockpulse/internal/handlers"
	"github.com/stockpulse/stockpulse/internal/hub"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(
	r *gin.Engine,
	alertHandler *handlers.AlertHandler,
	notificationHandler *handlers.NotificationHandler,
	h *hub.Hub,
) {
	// API routes
	api := r.Group("/api/v1")
	{
		watchlists := api.Group("/watchlists")
		{
			watchlists.POST("/:id/alerts", alertHandler.CreateAlert)
			watchlists.GET("/:id/alerts", alertHandler.GetAlerts)
		}

		alerts := api.Group("/alerts")
		{
			alerts.POST("/:id/disable", alertHandler.DisableAlert)
			alerts.DELETE("/:id", alertHandler.DeleteAlert)
		}

		users := api.Group("/users")
		{
			users.GET("/:user_id/notifications", notificationHandler.GetNotifications)
			users.GET("/:user_id/preferences", notificationHandler.GetPreferences)
			users.PUT("/:user_id/preferences", notificationHandler.UpdatePreferences)
		}

		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	// Real-time subscription endpoint. Identity comes from the connection's
	// credentials; a missing user id degrades to an anonymous connection.
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(h, c.Writer, c.Request, c.Query("user_id"))
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "stockpulse",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "StockPulse Alert Pipeline",
			"version": "1.0.0",
			"endpoints": gin.H{
				"alerts":        "/api/v1/watchlists/:id/alerts",
				"notifications": "/api/v1/users/:user_id/notifications",
				"websocket":     "/ws",
				"health":        "/health",
			},
		})
	})
}
