package handlers

import (
	"context"
	"net/http"

	"attachments-api/internal/models"
	"attachments-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// JobProcessor runs one processing pass for a job.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID int64, tenant string, forceRefresh bool) (*models.ProcessJobResponse, error)
}

// TaskSubmitter enqueues a processing task for asynchronous delivery.
type TaskSubmitter interface {
	Submit(ctx context.Context, jobID int64, tenant string, forceRefresh bool) (string, error)
}

type TaskHandler struct {
	processor JobProcessor
	enqueuer  TaskSubmitter
}

func NewTaskHandler(processor JobProcessor, enqueuer TaskSubmitter) *TaskHandler {
	return &TaskHandler{
		processor: processor,
		enqueuer:  enqueuer,
	}
}

// Process is the queue delivery target. The whole pass runs within this
// request; a non-2xx response makes the queue redeliver the task.
func (h *TaskHandler) Process(c *gin.Context) {
	var req models.ProcessJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error:   errors.ErrValidation.Code,
			Message: err.Error(),
		})
		return
	}

	resp, err := h.processor.ProcessJob(c.Request.Context(), req.JobID, req.Tenant, req.ForceRefresh)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Enqueue submits a task for asynchronous processing and returns its
// delivery id. Duplicate submissions for one job are harmless.
func (h *TaskHandler) Enqueue(c *gin.Context) {
	var req models.ProcessJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error:   errors.ErrValidation.Code,
			Message: err.Error(),
		})
		return
	}

	deliveryID, err := h.enqueuer.Submit(c.Request.Context(), req.JobID, req.Tenant, req.ForceRefresh)
	if err != nil {
		c.Error(errors.WrapError(err, "ENQUEUE_FAILED", "Failed to enqueue task", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "queued",
		"job_id":      req.JobID,
		"delivery_id": deliveryID,
	})
}
