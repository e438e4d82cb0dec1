package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/middleware"
	sendnotificationmodels "io.winapps.pushrelay/internal/models/send_notification"
	"io.winapps.pushrelay/internal/notify"
)

// SendTest broadcasts the fixed test notification to every registered user
func (h *NotificationsHandler) SendTest(c *gin.Context) {
	payload := sendnotificationmodels.TestPayload(time.Now().UTC())

	middleware.AddLogFields(c, "target", notify.TargetAllUsers.String())
	result, err := h.dispatcher.Dispatch(c.Request.Context(), notify.AllUsers(), payload)
	if err != nil {
		respondError(h.logger, c, err, "Failed to send test notification")
		return
	}
	middleware.AddLogFields(c, "sent", result.SentCount)
	c.JSON(http.StatusOK, result)
}
