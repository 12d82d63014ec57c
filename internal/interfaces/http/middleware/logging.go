// Package middleware implements the cross-cutting gin middleware applied to
// every inbound request: structured request logging and CORS. Recovery is
// gin's own gin.Recovery(), applied directly in the router. No middleware
// assigns a request ID; the logged request_id is whatever X-Request-Id
// response header a handler has set.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are paths excluded from per-request logging, to keep
	// high-frequency probes (health checks, metrics scrapes) out of the log.
	SkipPaths []string

	// SlowThreshold is the duration above which a request is logged at Warn
	// instead of Info.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns sane defaults for an HTTP API server.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

func (c LoggingConfig) shouldSkip(path string) bool {
	for _, p := range c.SkipPaths {
		if p == path {
			return true
		}
	}
	return false
}

// RequestLogging returns a gin.HandlerFunc that logs method, path, status,
// duration, and request ID for every non-skipped request. Responses in the
// 5xx range log at Error, 4xx at Warn, everything else at Info (or Warn if
// slower than SlowThreshold).
func RequestLogging(log logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.shouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.String("request_id", c.Writer.Header().Get("X-Request-Id")),
			logging.Int("bytes", c.Writer.Size()),
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields...)
		case status >= 400:
			log.Warn("request completed", fields...)
		case duration >= cfg.SlowThreshold:
			log.Warn("slow request", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
