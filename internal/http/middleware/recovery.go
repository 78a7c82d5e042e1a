// README: Panic recovery for the HTTP layer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/logger"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panic", map[string]interface{}{
					"request_id": RequestID(c),
					"path":       c.Request.URL.Path,
					"panic":      r,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
