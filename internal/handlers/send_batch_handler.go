package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/middleware"
	sendbatchmodels "io.winapps.pushrelay/internal/models/send_batch"
)

// SendBatch sends every notification in the batch to every registered user
func (h *NotificationsHandler) SendBatch(c *gin.Context) {
	var req sendbatchmodels.SendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if req.Notifications == nil {
		badRequest(c, "notifications array is required")
		return
	}

	middleware.AddLogFields(c, "target", "batch", "notifications", len(req.Notifications))
	result, err := h.dispatcher.DispatchBatch(c.Request.Context(), req.Notifications)
	if err != nil {
		respondError(h.logger, c, err, "Failed to send notification batch", "notifications", len(req.Notifications))
		return
	}
	middleware.AddLogFields(c, "sent", result.SentCount)
	c.JSON(http.StatusOK, result)
}
