package repositories

import (
	"context"
	"log"

	"attachments-api/internal/models"
	"attachments-api/pkg/errors"
	"attachments-api/pkg/postgres"
)

type AttachmentRepository struct {
	db *postgres.DB
}

func NewAttachmentRepository(db *postgres.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Upsert writes one attachment record keyed on the upstream attachment id.
// Re-processing the same job overwrites the prior row, including the
// freshly signed URL.
func (r *AttachmentRepository) Upsert(ctx context.Context, rec *models.AttachmentRecord) error {
	query := `
		INSERT INTO attachment_records (attachment_id, job_id, tenant, type, url, file_name, file_date, file_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (attachment_id) DO UPDATE
		SET job_id = $2, tenant = $3, type = $4, url = $5, file_name = $6,
			file_date = $7, file_by = $8, uploaded_at = $9
	`

	_, err := r.db.Pool.Exec(ctx, query,
		rec.AttachmentID, rec.JobID, rec.Tenant, rec.Type, rec.URL,
		rec.FileName, rec.FileDate, rec.FileBy, rec.UploadedAt,
	)
	if err != nil {
		return errors.WrapError(err, "INTERNAL_ERROR", "Failed to upsert attachment record", errors.ErrInternalServer.Status)
	}

	return nil
}

// ListByJob returns all attachment records for (jobID, tenant).
func (r *AttachmentRepository) ListByJob(ctx context.Context, jobID int64, tenant string) ([]*models.AttachmentRecord, error) {
	query := `
		SELECT attachment_id, job_id, tenant, type, url, file_name, file_date, file_by, uploaded_at
		FROM attachment_records
		WHERE job_id = $1 AND tenant = $2
		ORDER BY file_name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, jobID, tenant)
	if err != nil {
		return nil, errors.WrapError(err, "INTERNAL_ERROR", "Failed to list attachment records", errors.ErrInternalServer.Status)
	}
	defer rows.Close()

	var records []*models.AttachmentRecord
	for rows.Next() {
		rec := &models.AttachmentRecord{}
		err := rows.Scan(
			&rec.AttachmentID, &rec.JobID, &rec.Tenant, &rec.Type, &rec.URL,
			&rec.FileName, &rec.FileDate, &rec.FileBy, &rec.UploadedAt,
		)
		if err != nil {
			log.Printf("Error scanning attachment record: %v", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
