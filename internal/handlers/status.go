package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"petidocs/internal/models"
	"petidocs/internal/worker"
)

type StatusHandler struct {
	jobs *worker.JobStore
}

func NewStatusHandler(jobs *worker.JobStore) *StatusHandler {
	return &StatusHandler{jobs: jobs}
}

type taskStatusResponse struct {
	State    models.JobState   `json:"state"`
	Progress int               `json:"progress"`
	Message  string            `json:"message"`
	Result   *models.JobResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// TaskStatus reports a job's state to pollers. A failed job is a normal
// terminal payload, not a server error; only an unknown task id is a 404.
func (h *StatusHandler) TaskStatus(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("taskId"))
	if err != nil {
		fail(c, err)
		return
	}

	resp := taskStatusResponse{
		State:    job.State,
		Progress: job.Progress,
		Message:  job.Message,
		Error:    job.ErrorMessage,
	}
	if job.ResultJSON != "" {
		var result models.JobResult
		if err := json.Unmarshal([]byte(job.ResultJSON), &result); err == nil {
			resp.Result = &result
		}
	}

	c.JSON(http.StatusOK, resp)
}
