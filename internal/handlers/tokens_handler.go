package handlers

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"io.winapps.pushrelay/internal/tokens"
)

type TokensHandler struct {
	store  tokens.Store
	logger *zap.SugaredLogger
}

// NewTokensHandler creates a new expo token registry handler
func NewTokensHandler(store tokens.Store, logger *zap.SugaredLogger) *TokensHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TokensHandler{
		store:  store,
		logger: logger,
	}
}

func validTokenID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
