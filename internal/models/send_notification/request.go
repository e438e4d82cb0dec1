package models

import (
	"time"

	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

const (
	DefaultTitle = "Test Notification"
	DefaultBody  = "This is a test notification!"
)

// SendNotificationRequest targets an explicit token, one user, or everyone
// when neither ExpoToken nor UserID is set.
type SendNotificationRequest struct {
	notificationsmodels.Payload
	UserID    string `json:"user_id,omitempty"`
	ExpoToken string `json:"expo_token,omitempty"`
}

// TestPayload is the broadcast sent by the send-test endpoint.
func TestPayload(at time.Time) notificationsmodels.Payload {
	return notificationsmodels.Payload{
		Title: "Testing Notification",
		Body:  "This is a test notification from your backend!",
		Data: map[string]any{
			"type":      "test",
			"timestamp": at.Format(time.RFC3339),
		},
	}
}
