package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for logging. Downloads are logged when
// the stream ends, so latency covers the whole transfer.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// deferred so aborted streams are still logged
		defer func() {
			logRequest(log, c, start, path, query)
		}()

		c.Next()
	}
}

func logRequest(log *zap.Logger, c *gin.Context, start time.Time, path, query string) {
	statusCode := c.Writer.Status()
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.String("query", query),
		zap.Int("status", statusCode),
		zap.Int("bytes", c.Writer.Size()),
		zap.Duration("latency", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
	}
	if id := c.Writer.Header().Get("X-Download-Id"); id != "" {
		fields = append(fields, zap.String("download_id", id))
	}

	switch {
	case statusCode >= 500:
		log.Error("HTTP request", fields...)
	case statusCode >= 400:
		log.Warn("HTTP request", fields...)
	default:
		log.Info("HTTP request", fields...)
	}
}
