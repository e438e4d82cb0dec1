package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteToken removes a token by its id
func (h *TokensHandler) DeleteToken(c *gin.Context) {
	id := c.Param("id")
	if !validTokenID(id) {
		badRequest(c, "Invalid token ID format")
		return
	}

	rec, err := h.store.DeleteByID(c.Request.Context(), id)
	if err != nil {
		respondError(h.logger, c, err, "Failed to delete expo token", "token_id", id)
		return
	}

	logWithContext(h.logger, c, "info", "Expo token deleted", "token_id", id, "user_id", rec.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Expo token deleted successfully"})
}

// DeleteTokenByUser removes the token registered for a user
func (h *TokensHandler) DeleteTokenByUser(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}

	if _, err := h.store.DeleteByUserID(c.Request.Context(), userID); err != nil {
		respondError(h.logger, c, err, "Failed to delete expo token", "user_id", userID)
		return
	}

	logWithContext(h.logger, c, "info", "Expo token deleted", "user_id", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Expo token for user " + userID + " deleted successfully"})
}
