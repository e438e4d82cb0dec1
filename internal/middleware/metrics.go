package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/metrics"
)

// MetricsMiddleware records request counts and latency per matched route.
// Unmatched paths are grouped under one label to bound cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
