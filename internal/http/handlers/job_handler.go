// README: Job polling endpoint.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/internal/modules/job"
)

type JobHandler struct {
	jobs *job.Store
}

func NewJobHandler(jobs *job.Store) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type jobResponse struct {
	ID        string       `json:"job_id"`
	Status    job.Status   `json:"status"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
	Steps     []job.Step   `json:"steps"`
	Result    any          `json:"result,omitempty"`
	Error     *job.Failure `json:"error,omitempty"`
}

// Get returns the current job snapshot. Result appears only once the job is
// done, Error only once it failed; a reader never sees a half-updated job.
func (h *JobHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidJobID(id) {
		writeError(c, http.StatusNotFound, "job not found")
		return
	}
	j, err := h.jobs.Get(id)
	if err != nil {
		writeError(c, http.StatusNotFound, "job not found")
		return
	}
	resp := jobResponse{
		ID:        j.ID,
		Status:    j.Status,
		CreatedAt: j.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.UTC().Format(time.RFC3339),
		Steps:     j.Steps,
	}
	if j.Status == job.StatusDone {
		resp.Result = j.Result
	}
	if j.Status == job.StatusFailed {
		resp.Error = j.Err
	}
	c.JSON(http.StatusOK, resp)
}
