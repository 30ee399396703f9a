package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	accounthandler "account_backend/internal/feature/account/transport/handler"
	platformhandler "account_backend/internal/platform/http/handler"
)

// NewRouter wires the account endpoints. metrics may be nil, in which case
// /metrics is not served.
func NewRouter(accounts *accounthandler.AccountHandler, health *platformhandler.HealthHandler,
	metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// Probes
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// Account workflows
	r.POST("/register", accounts.Register)
	r.POST("/login", accounts.Login)
	r.PUT("/change-password", accounts.ChangePassword)

	return r
}

// requestLogger writes one access log line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.ClientIP(),
		)
	}
}
