package models

import "time"

// JobStatus is the persisted lifecycle state of a job's attachment
// processing. The numeric values are part of the status API contract.
type JobStatus int

const (
	JobStatusError      JobStatus = -1
	JobStatusPending    JobStatus = 0
	JobStatusProcessing JobStatus = 1
	JobStatusProcessed  JobStatus = 2
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusError:
		return "error"
	case JobStatusPending:
		return "pending"
	case JobStatusProcessing:
		return "processing"
	case JobStatusProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

// AttachmentType is the classification bucket for an attachment filename.
type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "img"
	AttachmentTypePDF   AttachmentType = "pdf"
	AttachmentTypeVideo AttachmentType = "vid"
	AttachmentTypeOther AttachmentType = "oth"
)

// JobProcessingStatus is one row of job_attachment_status, unique per
// (job_id, tenant). Absence of a row reads as pending.
type JobProcessingStatus struct {
	JobID        int64      `json:"job_id"`
	Tenant       string     `json:"tenant"`
	Status       JobStatus  `json:"status"`
	ErrorMessage string     `json:"error_message"`
	LastUpdate   *time.Time `json:"last_update"`
}

// AttachmentRecord is one row of attachment_records, keyed on the
// upstream attachment id. Re-processing a job overwrites prior rows.
type AttachmentRecord struct {
	AttachmentID int64          `json:"attachment_id"`
	JobID        int64          `json:"job_id"`
	Tenant       string         `json:"tenant"`
	Type         AttachmentType `json:"type"`
	URL          string         `json:"url"`
	FileName     string         `json:"file_name"`
	FileDate     string         `json:"file_date"`
	FileBy       int64          `json:"file_by"`
	UploadedAt   time.Time      `json:"uploaded_at"`
}

// TaskEnvelope is the payload the enqueuer pushes onto the task queue and
// the dispatcher delivers to the ingress. The delivery id only exists for
// log correlation; deliveries carry no persisted identity.
type TaskEnvelope struct {
	DeliveryID   string `json:"delivery_id"`
	JobID        int64  `json:"job_id"`
	Tenant       string `json:"tenant"`
	ForceRefresh bool   `json:"force_refresh"`
}

// ProcessJobRequest is the body of POST /tasks/process-job
type ProcessJobRequest struct {
	JobID        int64  `json:"job_id" binding:"required"`
	Tenant       string `json:"tenant" binding:"required"`
	ForceRefresh bool   `json:"force_refresh"`
}

// ProcessJobResponse is the ingress response. NumImages and Message are
// null when the call was skipped or nothing noteworthy happened.
type ProcessJobResponse struct {
	Status    string  `json:"status"`
	JobID     int64   `json:"job_id"`
	NumImages *int    `json:"num_images"`
	Message   *string `json:"message"`
}

const (
	ProcessResultProcessed = "processed"
	ProcessResultSkipped   = "skipped_already_processed"
)

// JobStatusResponse is the body of GET /jobs/:job_id/status
type JobStatusResponse struct {
	JobID        int64      `json:"job_id"`
	Tenant       string     `json:"tenant"`
	Status       int        `json:"status"`
	StatusText   string     `json:"status_text"`
	ErrorMessage string     `json:"error_message"`
	LastUpdate   *time.Time `json:"last_update"`
}

// AttachmentListItem is one row of GET /jobs/:job_id/attachments
type AttachmentListItem struct {
	AttachmentID int64          `json:"attachment_id"`
	Type         AttachmentType `json:"type"`
	URL          string         `json:"url"`
	FileName     string         `json:"file_name"`
	FileDate     string         `json:"file_date"`
	FileBy       int64          `json:"file_by"`
}
