package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.pushrelay/internal/metrics"
	"io.winapps.pushrelay/internal/middleware"
)

// RouterConfig bundles the handlers and shared dependencies served by NewRouter.
type RouterConfig struct {
	Tokens        *TokensHandler
	Notifications *NotificationsHandler
	System        *SystemHandler
	Metrics       *metrics.Metrics
	Logger        *zap.SugaredLogger
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestLoggingMiddleware(logger, "/health", "/metrics"))
	router.Use(middleware.MetricsMiddleware(cfg.Metrics))
	router.Use(middleware.CORSMiddleware())

	router.GET("/", cfg.System.Root)
	router.GET("/health", cfg.System.Health)
	router.GET("/dashboard", cfg.System.Dashboard)
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	api := router.Group("/api")
	{
		tokens := api.Group("/expo-tokens")
		{
			tokens.POST("", cfg.Tokens.RegisterToken)
			tokens.POST("/", cfg.Tokens.RegisterToken)
			tokens.GET("", cfg.Tokens.ListTokens)
			tokens.GET("/", cfg.Tokens.ListTokens)
			tokens.GET("/user/:user_id", cfg.Tokens.GetTokenByUser)
			tokens.DELETE("/user/:user_id", cfg.Tokens.DeleteTokenByUser)
			tokens.GET("/:id", cfg.Tokens.GetToken)
			tokens.PUT("/:id", cfg.Tokens.UpdateToken)
			tokens.DELETE("/:id", cfg.Tokens.DeleteToken)
		}

		notifications := api.Group("/notifications")
		{
			notifications.POST("/send", cfg.Notifications.SendNotification)
			notifications.POST("/send-batch", cfg.Notifications.SendBatch)
			notifications.POST("/send-to-user/:user_id", cfg.Notifications.SendToUser)
			notifications.POST("/send-test", cfg.Notifications.SendTest)
		}

		api.GET("/stats", cfg.System.GetStats)
		api.GET("/scheduler/jobs", cfg.System.ListJobs)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
