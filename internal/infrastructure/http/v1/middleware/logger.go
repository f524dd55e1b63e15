package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atelier/pkg/logger"
)

// Logger puts log into the request context and writes one access entry per
// request: info for success, warn for client errors, error for server errors.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.Last().Error())
		}

		entry := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			entry.Errorw("http request", kv...)
		case status >= http.StatusBadRequest:
			entry.Warnw("http request", kv...)
		default:
			entry.Infow("http request", kv...)
		}
	}
}
