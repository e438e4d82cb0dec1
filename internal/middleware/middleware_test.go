package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := newObservedLogger()
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(logger))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggingMiddleware(t *testing.T) {
	logger, logs := newObservedLogger()
	r := gin.New()
	r.Use(RequestLoggingMiddleware(logger, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": strings.Repeat("x", 2048)})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, logs.Len(), "skipped paths are not logged")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	warn := logs.FilterMessage("request rejected").All()
	require.Len(t, warn, 1)
	assert.Equal(t, int64(http.StatusNotFound), warn[0].ContextMap()["status"])
	assert.Equal(t, "/missing", warn[0].ContextMap()["route"])
	response := warn[0].ContextMap()["response"].(string)
	assert.True(t, strings.HasSuffix(response, "...(truncated)"))
	assert.Len(t, response, maxLoggedBody+len("...(truncated)"))
}

func TestRequestLoggingMiddleware_DomainFields(t *testing.T) {
	logger, logs := newObservedLogger()
	r := gin.New()
	r.Use(RequestIDMiddleware(), RequestLoggingMiddleware(logger))
	r.POST("/api/notifications/send-to-user/:user_id", func(c *gin.Context) {
		AddLogFields(c, "target", "specific_user")
		AddLogFields(c, "sent", 1)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/send-to-user/u1", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "/api/notifications/send-to-user/:user_id", fields["route"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "specific_user", fields["target"])
	assert.Equal(t, int64(1), fields["sent"])
	assert.NotContains(t, fields, "response")
}

func TestRequestLoggingMiddleware_ServerError(t *testing.T) {
	logger, logs := newObservedLogger()
	r := gin.New()
	r.Use(RequestLoggingMiddleware(logger))
	r.DELETE("/api/expo-tokens/:id", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token store unavailable"})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/expo-tokens/abc", nil))

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()["token_id"])
	assert.JSONEq(t, `{"error":"Token store unavailable"}`, entries[0].ContextMap()["response"].(string))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/api/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
