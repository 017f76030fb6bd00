package handlers

import (
	"context"
	"net/http"
	"strconv"

	"attachments-api/internal/models"
	"attachments-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// StatusReader reads the lifecycle state of a job.
type StatusReader interface {
	GetStatus(ctx context.Context, jobID int64, tenant string) (*models.JobProcessingStatus, error)
}

// AttachmentLister reads the stored attachment records of a job.
type AttachmentLister interface {
	ListByJob(ctx context.Context, jobID int64, tenant string) ([]*models.AttachmentRecord, error)
}

type StatusHandler struct {
	status  StatusReader
	records AttachmentLister
}

func NewStatusHandler(status StatusReader, records AttachmentLister) *StatusHandler {
	return &StatusHandler{
		status:  status,
		records: records,
	}
}

func (h *StatusHandler) jobParams(c *gin.Context) (int64, string, bool) {
	jobID, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error:   errors.ErrValidation.Code,
			Message: "Invalid job id",
		})
		return 0, "", false
	}

	tenant := c.Query("tenant")
	if tenant == "" {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error:   errors.ErrValidation.Code,
			Message: "Query parameter 'tenant' is required",
		})
		return 0, "", false
	}

	return jobID, tenant, true
}

// GetStatus returns the processing status of a job. Jobs never submitted
// read as pending.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	jobID, tenant, ok := h.jobParams(c)
	if !ok {
		return
	}

	st, err := h.status.GetStatus(c.Request.Context(), jobID, tenant)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.JobStatusResponse{
		JobID:        st.JobID,
		Tenant:       st.Tenant,
		Status:       int(st.Status),
		StatusText:   st.Status.String(),
		ErrorMessage: st.ErrorMessage,
		LastUpdate:   st.LastUpdate,
	})
}

// ListAttachments returns the stored records for a job. URLs are served
// as written; a stale signed URL is only refreshed by the next
// force_refresh processing pass.
func (h *StatusHandler) ListAttachments(c *gin.Context) {
	jobID, tenant, ok := h.jobParams(c)
	if !ok {
		return
	}

	recs, err := h.records.ListByJob(c.Request.Context(), jobID, tenant)
	if err != nil {
		c.Error(err)
		return
	}

	items := make([]models.AttachmentListItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, models.AttachmentListItem{
			AttachmentID: rec.AttachmentID,
			Type:         rec.Type,
			URL:          rec.URL,
			FileName:     rec.FileName,
			FileDate:     rec.FileDate,
			FileBy:       rec.FileBy,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":      jobID,
		"tenant":      tenant,
		"attachments": items,
	})
}
