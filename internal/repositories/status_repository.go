package repositories

import (
	"context"
	"time"

	"attachments-api/internal/models"
	"attachments-api/pkg/errors"
	"attachments-api/pkg/postgres"
)

type StatusRepository struct {
	db *postgres.DB
}

func NewStatusRepository(db *postgres.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetStatus reads the status row for (jobID, tenant). No row reads as
// pending. More than one row should be impossible under the unique
// constraint; if it happens anyway the job reads as errored, fail-closed.
func (r *StatusRepository) GetStatus(ctx context.Context, jobID int64, tenant string) (*models.JobProcessingStatus, error) {
	query := `
		SELECT status, error_msg, last_update
		FROM job_attachment_status
		WHERE job_id = $1 AND tenant = $2
	`

	rows, err := r.db.Pool.Query(ctx, query, jobID, tenant)
	if err != nil {
		return nil, errors.WrapError(err, errors.CodeStatusStore, "Failed to read job status", errors.ErrInternalServer.Status)
	}
	defer rows.Close()

	var found []*models.JobProcessingStatus
	for rows.Next() {
		st := &models.JobProcessingStatus{JobID: jobID, Tenant: tenant}
		if err := rows.Scan(&st.Status, &st.ErrorMessage, &st.LastUpdate); err != nil {
			return nil, errors.WrapError(err, errors.CodeStatusStore, "Failed to scan job status", errors.ErrInternalServer.Status)
		}
		found = append(found, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CodeStatusStore, "Failed to read job status", errors.ErrInternalServer.Status)
	}

	switch len(found) {
	case 0:
		return &models.JobProcessingStatus{
			JobID:  jobID,
			Tenant: tenant,
			Status: models.JobStatusPending,
		}, nil
	case 1:
		return found[0], nil
	default:
		return &models.JobProcessingStatus{
			JobID:        jobID,
			Tenant:       tenant,
			Status:       models.JobStatusError,
			ErrorMessage: "duplicate status rows for job",
		}, nil
	}
}

// SetProcessing claims the job for processing. The conditional upsert
// refuses when the row is already in processing so that only one of two
// concurrent deliveries proceeds. A force claim skips the guard; it is
// the recovery hatch for jobs stuck in processing after a crash.
// Returns whether the claim succeeded.
func (r *StatusRepository) SetProcessing(ctx context.Context, jobID int64, tenant string, force bool, now time.Time) (bool, error) {
	query := `
		INSERT INTO job_attachment_status (job_id, tenant, status, error_msg, last_update)
		VALUES ($1, $2, $3, '', $4)
		ON CONFLICT (job_id, tenant) DO UPDATE
		SET status = $3, error_msg = '', last_update = $4
		WHERE job_attachment_status.status <> $3 OR $5
	`

	result, err := r.db.Pool.Exec(ctx, query, jobID, tenant, models.JobStatusProcessing, now, force)
	if err != nil {
		return false, errors.WrapError(err, errors.CodeStatusStore, "Failed to mark job processing", errors.ErrInternalServer.Status)
	}

	return result.RowsAffected() > 0, nil
}

// SetProcessed marks the job done with the number of attachments written.
func (r *StatusRepository) SetProcessed(ctx context.Context, jobID int64, tenant string, count int, now time.Time) error {
	query := `
		INSERT INTO job_attachment_status (job_id, tenant, status, error_msg, num_images, last_update)
		VALUES ($1, $2, $3, '', $4, $5)
		ON CONFLICT (job_id, tenant) DO UPDATE
		SET status = $3, error_msg = '', num_images = $4, last_update = $5
	`

	_, err := r.db.Pool.Exec(ctx, query, jobID, tenant, models.JobStatusProcessed, count, now)
	if err != nil {
		return errors.WrapError(err, errors.CodeStatusStore, "Failed to mark job processed", errors.ErrInternalServer.Status)
	}

	return nil
}

// SetError records a failed run. Rows are never deleted; a later
// force_refresh run overwrites this.
func (r *StatusRepository) SetError(ctx context.Context, jobID int64, tenant string, message string, now time.Time) error {
	query := `
		INSERT INTO job_attachment_status (job_id, tenant, status, error_msg, last_update)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id, tenant) DO UPDATE
		SET status = $3, error_msg = $4, last_update = $5
	`

	_, err := r.db.Pool.Exec(ctx, query, jobID, tenant, models.JobStatusError, message, now)
	if err != nil {
		return errors.WrapError(err, errors.CodeStatusStore, "Failed to mark job errored", errors.ErrInternalServer.Status)
	}

	return nil
}
