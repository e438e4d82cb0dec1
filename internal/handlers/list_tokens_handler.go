package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTokens returns every registered token
func (h *TokensHandler) ListTokens(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(h.logger, c, err, "Failed to list expo tokens")
		return
	}
	c.JSON(http.StatusOK, records)
}
