// README: Per-endpoint-class admission control.
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"atlas/internal/logger"
	"atlas/internal/metrics"
	"atlas/internal/modules/ratelimit"
)

// RateLimit gates a route group on its own limiter instance. Rejections
// carry Retry-After so well-behaved clients can back off precisely.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ratelimit.ClientID(c.Request)
		allowed, retryAfter, err := limiter.Admit(c.Request.Context(), clientID)
		if err != nil {
			// A broken limiter backend fails open; availability wins over
			// strict admission here.
			logger.Error("rate limiter backend error", map[string]interface{}{
				"limiter": limiter.Name, "error": err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			metrics.RejectionsTotal.WithLabelValues("rate_limited").Inc()
			metrics.RateLimitRejectedTotal.WithLabelValues(limiter.Name).Inc()
			logger.Security("rate_limited", map[string]interface{}{
				"limiter": limiter.Name, "client_id": clientID,
			})
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate limit exceeded, please try again later",
				"retry_after_seconds": seconds,
			})
			return
		}
		c.Next()
	}
}
