package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey = "request_id"
	logFieldsKey = "log_fields"

	// maxLoggedBody caps how much of an error response is copied into the log.
	maxLoggedBody = 1024
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one, and
// exposes it to handlers and in the response headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// AddLogFields attaches key/value pairs to the access log line of the
// current request. Handlers use it for dispatch targets and outcomes.
func AddLogFields(c *gin.Context, keyvals ...any) {
	existing, _ := c.Get(logFieldsKey)
	fields, _ := existing.([]any)
	c.Set(logFieldsKey, append(fields, keyvals...))
}

// requestFields describes the request by its matched route and the registry
// identifiers in its path, so log lines group per endpoint.
func requestFields(c *gin.Context) []any {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	fields := []any{
		"request_id", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"route", route,
		"client_ip", c.ClientIP(),
	}
	if id := c.Param("id"); id != "" {
		fields = append(fields, "token_id", id)
	}
	if userID := c.Param("user_id"); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	return fields
}

// errorBodyWriter keeps the first maxLoggedBody bytes of the response so a
// failed request can be logged with what the client was told.
type errorBodyWriter struct {
	gin.ResponseWriter
	head      []byte
	truncated bool
}

func (w *errorBodyWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - len(w.head); room > 0 {
		if len(b) > room {
			w.head = append(w.head, b[:room]...)
			w.truncated = true
		} else {
			w.head = append(w.head, b...)
		}
	} else if len(b) > 0 {
		w.truncated = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *errorBodyWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *errorBodyWriter) body() string {
	if w.truncated {
		return string(w.head) + "...(truncated)"
	}
	return string(w.head)
}

// RequestLoggingMiddleware writes one access log line per request, at a level
// chosen by status. Fields added with AddLogFields are included. Requests to
// skipPaths (health checks, metric scrapes) are not logged.
func RequestLoggingMiddleware(logger *zap.SugaredLogger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		w := &errorBodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		fields := append(requestFields(c),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if extra, ok := c.Get(logFieldsKey); ok {
			fields = append(fields, extra.([]any)...)
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Errorw("request failed", append(fields, "response", w.body())...)
		case status >= http.StatusBadRequest:
			logger.Warnw("request rejected", append(fields, "response", w.body())...)
		default:
			logger.Infow("request completed", fields...)
		}
	}
}

// RecoveryMiddleware converts panics to 500 responses and logs the stack.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := append(requestFields(c), "panic", r, "stack", string(debug.Stack()))
				logger.Errorw("panic recovered", fields...)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}
