// README: Itinerary request admission: async job creation and sync generation.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/logger"
	"atlas/internal/metrics"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/job"
)

type ItineraryHandler struct {
	svc *itinerary.Service
}

func NewItineraryHandler(svc *itinerary.Service) *ItineraryHandler {
	return &ItineraryHandler{svc: svc}
}

// CreateJob admits a request and returns 202 with the queued job id. All
// validation and screening happens here, before any job exists.
func (h *ItineraryHandler) CreateJob(c *gin.Context) {
	req, ok := h.admit(c)
	if !ok {
		return
	}
	id := h.svc.Enqueue(req)
	logger.Info("itinerary job queued", map[string]interface{}{
		"job_id": id, "destination": req.Destination, "days": req.DurationDays,
	})
	c.JSON(http.StatusAccepted, gin.H{"job_id": id, "status": job.StatusQueued})
}

// Generate runs the pipeline synchronously. Same admission path as the job
// endpoint; failures map to the job failure taxonomy but surface as HTTP
// statuses since there is no job to poll.
func (h *ItineraryHandler) Generate(c *gin.Context) {
	req, ok := h.admit(c)
	if !ok {
		return
	}
	it, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		failure := itinerary.FailureFor(err)
		logger.Error("synchronous generation failed", map[string]interface{}{
			"destination": req.Destination, "reason": string(failure.Reason), "error": err.Error(),
		})
		status := http.StatusBadGateway
		if failure.Reason == job.ReasonProviderTimeout {
			status = http.StatusGatewayTimeout
		}
		writeError(c, status, failure.Message)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *ItineraryHandler) admit(c *gin.Context) (*itinerary.Request, bool) {
	var raw itinerary.RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RejectionsTotal.WithLabelValues("oversized").Inc()
			writeError(c, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(c, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	req, patterns, rej := itinerary.Validate(&raw)
	if rej != nil {
		writeRejection(c, rej)
		return nil, false
	}
	logStrippedPatterns(c, patterns)
	return req, true
}
