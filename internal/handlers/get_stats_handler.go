package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats returns registry totals
func (h *SystemHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Compute(c.Request.Context())
	if err != nil {
		respondError(h.logger, c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
