package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports service liveness and whether the token store answers
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	status, database := "healthy", "connected"
	if err := h.store.Ping(ctx); err != nil {
		logWithContext(h.logger, c, "warn", "Token store ping failed", "error", err)
		status, database = "degraded", "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"database":  database,
		"db_mode":   h.dbMode,
	})
}

// Root returns basic service information
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Expo Push Relay",
		"version": "1.0.0",
	})
}
