package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.pushrelay/internal/apperr"
)

func requestContextFields(c *gin.Context) []any {
	return []any{
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"query", c.Request.URL.RawQuery,
		"client_ip", c.ClientIP(),
	}
}

func logWithContext(logger *zap.SugaredLogger, c *gin.Context, level string, msg string, fields ...any) {
	base := requestContextFields(c)
	all := append(base, fields...)
	switch level {
	case "debug":
		logger.Debugw(msg, all...)
	case "warn":
		logger.Warnw(msg, all...)
	case "error":
		logger.Errorw(msg, all...)
	default:
		logger.Infow(msg, all...)
	}
}

// respondError writes err as {"error": message} with the status of its code.
// Server-side failures are logged at error level, client errors at debug.
func respondError(logger *zap.SugaredLogger, c *gin.Context, err error, msg string, fields ...any) {
	status := apperr.HTTPStatus(err)
	fields = append(fields, "error", err, "code", string(apperr.CodeOf(err)))
	if status >= 500 {
		logWithContext(logger, c, "error", msg, fields...)
	} else {
		logWithContext(logger, c, "debug", msg, fields...)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
