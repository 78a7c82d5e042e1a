// README: Payload size cap, enforced before any validation runs.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/metrics"
)

// BodyLimit rejects oversized payloads with 413. A declared Content-Length
// over the cap is refused up front; otherwise MaxBytesReader trips the same
// response once the handler reads past the cap.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			metrics.RejectionsTotal.WithLabelValues("oversized").Inc()
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
