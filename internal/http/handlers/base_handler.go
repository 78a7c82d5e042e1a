// README: Shared handler utilities (JSON helpers, rejection mapping).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/logger"
	"atlas/internal/metrics"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/ratelimit"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// isValidJobID ensures ids are hex and 32 chars (matches the id generator).
func isValidJobID(v string) bool {
	if len(v) != 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeRejection maps an admission rejection to a 400. Structural rejections
// echo the message so the client can correct the payload; security
// rejections get a fixed generic message and the matched pattern ids stay in
// the server log.
func writeRejection(c *gin.Context, rej *itinerary.Rejection) {
	metrics.RejectionsTotal.WithLabelValues(rej.Class).Inc()
	switch rej.Class {
	case itinerary.RejectSecurity:
		logger.Security("request_rejected", map[string]interface{}{
			"field":     rej.Field,
			"patterns":  rej.PatternIDs,
			"client_id": ratelimit.ClientID(c.Request),
		})
		metrics.SecurityEventsTotal.WithLabelValues(rej.Field).Inc()
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "request contains content that is not allowed",
			Field: rej.Field,
		})
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: rej.Message, Field: rej.Field})
	}
}

// logStrippedPatterns records injection matches from strip-policy fields.
// The request itself was admitted; the event still matters.
func logStrippedPatterns(c *gin.Context, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	logger.Security("input_stripped", map[string]interface{}{
		"patterns":  patterns,
		"client_id": ratelimit.ClientID(c.Request),
	})
	metrics.SecurityEventsTotal.WithLabelValues("stripped").Inc()
}
