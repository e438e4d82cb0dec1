package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Dashboard serves the admin dashboard page
func (h *SystemHandler) Dashboard(c *gin.Context) {
	if _, err := os.Stat(h.dashboardPath); err != nil {
		logWithContext(h.logger, c, "warn", "Dashboard asset missing", "path", h.dashboardPath, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Dashboard not found"})
		return
	}
	c.File(h.dashboardPath)
}
