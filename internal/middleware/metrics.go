package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockpulse/stockpulse/internal/metrics"
)

// Metrics records request counts and durations for every route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequests.WithLabelValues(path, method, status).Inc()
		metrics.RequestDuration.WithLabelValues(path, method).Observe(duration)
	}
}
