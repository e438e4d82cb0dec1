package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetToken returns one token by its id
func (h *TokensHandler) GetToken(c *gin.Context) {
	id := c.Param("id")
	if !validTokenID(id) {
		badRequest(c, "Invalid token ID format")
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(h.logger, c, err, "Failed to fetch expo token", "token_id", id)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetTokenByUser returns the token registered for a user
func (h *TokensHandler) GetTokenByUser(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}

	rec, err := h.store.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(h.logger, c, err, "Failed to fetch expo token", "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, rec)
}
