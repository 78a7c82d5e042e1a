// README: Request id propagation plus access logging and metrics.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"atlas/internal/logger"
	"atlas/internal/metrics"
)

const RequestIDKey = "request_id"

// Observe tags every request with an id, logs the outcome, and records the
// request metrics. An inbound X-Request-Id is honored so upstream proxies
// can correlate.
func Observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestsTotal.WithLabelValues(handler, c.Request.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(handler).Observe(elapsed.Seconds())

		logger.Info("http request", map[string]interface{}{
			"request_id": rid,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		})
	}
}

// RequestID returns the id Observe assigned to this request.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
