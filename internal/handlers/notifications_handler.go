package handlers

import (
	"context"

	"go.uber.org/zap"

	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
	"io.winapps.pushrelay/internal/notify"
)

// Dispatcher is satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, target notify.Target, payload notificationsmodels.Payload) (*notificationsmodels.DispatchResult, error)
	DispatchBatch(ctx context.Context, payloads []notificationsmodels.Payload) (*notificationsmodels.DispatchResult, error)
}

type NotificationsHandler struct {
	dispatcher Dispatcher
	logger     *zap.SugaredLogger
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(dispatcher Dispatcher, logger *zap.SugaredLogger) *NotificationsHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NotificationsHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}
