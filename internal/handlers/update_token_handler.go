package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	updatetokenmodels "io.winapps.pushrelay/internal/models/update_token"
	"io.winapps.pushrelay/internal/tokens"
)

// UpdateToken changes the token and/or the user of an existing record
func (h *TokensHandler) UpdateToken(c *gin.Context) {
	id := c.Param("id")
	if !validTokenID(id) {
		badRequest(c, "Invalid token ID format")
		return
	}

	var req updatetokenmodels.UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if (req.UserID != nil && *req.UserID == "") || (req.ExpoToken != nil && *req.ExpoToken == "") {
		badRequest(c, "user_id and expo_token cannot be empty")
		return
	}

	rec, err := h.store.Update(c.Request.Context(), id, tokens.UpdateFields{
		UserID: req.UserID,
		Token:  req.ExpoToken,
	})
	if err != nil {
		respondError(h.logger, c, err, "Failed to update expo token", "token_id", id)
		return
	}

	logWithContext(h.logger, c, "info", "Expo token updated", "token_id", rec.ID, "user_id", rec.UserID)
	c.JSON(http.StatusOK, rec)
}
