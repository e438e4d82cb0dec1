package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	registertokenmodels "io.winapps.pushrelay/internal/models/register_token"
)

// RegisterToken stores the token of a user, replacing any previous one
func (h *TokensHandler) RegisterToken(c *gin.Context) {
	var req registertokenmodels.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and expo_token are required")
		return
	}

	rec, err := h.store.Upsert(c.Request.Context(), req.UserID, req.ExpoToken)
	if err != nil {
		respondError(h.logger, c, err, "Failed to register expo token", "user_id", req.UserID)
		return
	}

	logWithContext(h.logger, c, "info", "Expo token registered", "user_id", rec.UserID, "token_id", rec.ID)
	c.JSON(http.StatusCreated, rec)
}
