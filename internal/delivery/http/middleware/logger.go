package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rhb-forms-api/internal/domain"
)

// RequestLogger logs one line per request. Bodies and query strings are never
// logged since they carry form contents.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", c.Writer.Size()),
			zap.String("request_id", domain.RequestIDFrom(c.Request.Context())),
			zap.String("client_id", domain.ClientIDFrom(c.Request.Context())),
		}
		if v, ok := c.Get(domain.KeySubmissionState); ok {
			if state, ok := v.(domain.SubmissionState); ok {
				fields = append(fields, zap.String("state", string(state)))
			}
		}
		log.Log(level, "request", fields...)
	}
}
