package models

import notificationsmodels "io.winapps.pushrelay/internal/models/notifications"

type SendBatchRequest struct {
	Notifications []notificationsmodels.Payload `json:"notifications"`
}
