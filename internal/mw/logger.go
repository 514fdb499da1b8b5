package mw

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/logger"
)

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if p, ok := PrincipalFrom(c); ok {
			attrs = append(attrs, "profile_id", p.ProfileID)
		}
		log.Log(c.Request.Context(), level, "request", attrs...)
	}
}
