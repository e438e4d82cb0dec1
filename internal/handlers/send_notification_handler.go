package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/middleware"
	sendnotificationmodels "io.winapps.pushrelay/internal/models/send_notification"
	"io.winapps.pushrelay/internal/notify"
)

// SendNotification sends one notification to an explicit token, to one user,
// or to every registered user, in that order of precedence
func (h *NotificationsHandler) SendNotification(c *gin.Context) {
	var req sendnotificationmodels.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	if req.Title == "" {
		req.Title = sendnotificationmodels.DefaultTitle
	}
	if req.Body == "" {
		req.Body = sendnotificationmodels.DefaultBody
	}

	target := notify.AllUsers()
	switch {
	case req.ExpoToken != "":
		target = notify.ExplicitToken(req.ExpoToken)
	case req.UserID != "":
		target = notify.SpecificUser(req.UserID)
	}

	middleware.AddLogFields(c, "target", target.Kind.String())
	result, err := h.dispatcher.Dispatch(c.Request.Context(), target, req.Payload)
	if err != nil {
		respondError(h.logger, c, err, "Failed to send notification", "target", target.Kind.String(), "user_id", req.UserID)
		return
	}
	middleware.AddLogFields(c, "sent", result.SentCount)
	c.JSON(http.StatusOK, result)
}
