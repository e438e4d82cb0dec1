package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/middleware"
	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
	sendnotificationmodels "io.winapps.pushrelay/internal/models/send_notification"
	"io.winapps.pushrelay/internal/notify"
)

// SendToUser sends one notification to the user named in the path. The body
// is optional; missing title and body fall back to the test notification.
func (h *NotificationsHandler) SendToUser(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}

	var payload notificationsmodels.Payload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request format")
		return
	}
	if payload.Title == "" {
		payload.Title = sendnotificationmodels.DefaultTitle
	}
	if payload.Body == "" {
		payload.Body = sendnotificationmodels.DefaultBody
	}

	middleware.AddLogFields(c, "target", notify.TargetSpecificUser.String())
	result, err := h.dispatcher.Dispatch(c.Request.Context(), notify.SpecificUser(userID), payload)
	if err != nil {
		respondError(h.logger, c, err, "Failed to send notification to user", "user_id", userID)
		return
	}
	middleware.AddLogFields(c, "sent", result.SentCount)
	c.JSON(http.StatusOK, result)
}
