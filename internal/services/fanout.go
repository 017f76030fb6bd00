package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attachments-api/internal/attachments"
	"attachments-api/internal/models"
	"attachments-api/pkg/errors"
	"attachments-api/pkg/servicetitan"

	fylogger "github.com/FyersDev/trading-logger-go"
)

// UpstreamClient fetches attachment metadata and bytes for one tenant.
type UpstreamClient interface {
	ListJobAttachments(ctx context.Context, jobID int64) ([]servicetitan.Attachment, error)
	GetAttachment(ctx context.Context, attachmentID int64) ([]byte, error)
}

// ObjectStore writes blobs and returns signed retrieval URLs.
type ObjectStore interface {
	UploadSigned(ctx context.Context, key string, data []byte) (string, error)
}

// AttachmentStore persists attachment records.
type AttachmentStore interface {
	Upsert(ctx context.Context, rec *models.AttachmentRecord) error
	ListByJob(ctx context.Context, jobID int64, tenant string) ([]*models.AttachmentRecord, error)
}

// FanOutResult aggregates per-attachment outcomes of one processing pass.
// Successes are already durably written when Run returns; Failures carry
// one message per attachment that could not be stored.
type FanOutResult struct {
	Processed int
	Failures  []string
}

// FanOutEngine downloads, uploads and records each attachment of a job
// with bounded parallelism. One engine is shared across requests; each
// Run uses its own pool sized min(maxWorkers, N).
type FanOutEngine struct {
	objectStore ObjectStore
	records     AttachmentStore
	maxWorkers  int
}

func NewFanOutEngine(objectStore ObjectStore, records AttachmentStore, maxWorkers int) *FanOutEngine {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &FanOutEngine{
		objectStore: objectStore,
		records:     records,
		maxWorkers:  maxWorkers,
	}
}

type itemOutcome struct {
	fileName string
	err      error
}

// Run processes every attachment in atts for (jobID, tenant) and returns
// the aggregated result. Attachments without an id or filename are
// skipped, as the upstream API occasionally returns placeholder rows.
// Completion order across attachments is arbitrary.
func (e *FanOutEngine) Run(ctx context.Context, upstream UpstreamClient, jobID int64, tenant string, atts []servicetitan.Attachment, now time.Time) FanOutResult {
	var valid []servicetitan.Attachment
	for _, att := range atts {
		if att.ID == 0 || att.FileName == "" {
			continue
		}
		valid = append(valid, att)
	}

	if len(valid) == 0 {
		return FanOutResult{}
	}

	width := e.maxWorkers
	if len(valid) < width {
		width = len(valid)
	}

	sem := make(chan struct{}, width)
	outcomes := make(chan itemOutcome, len(valid))
	var wg sync.WaitGroup

	for _, att := range valid {
		wg.Add(1)
		go func(att servicetitan.Attachment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes <- itemOutcome{
				fileName: att.FileName,
				err:      e.processOne(ctx, upstream, jobID, tenant, att, now),
			}
		}(att)
	}

	wg.Wait()
	close(outcomes)

	var result FanOutResult
	for outcome := range outcomes {
		if outcome.err != nil {
			fylogger.ErrorLog(ctx, fmt.Sprintf("Attachment %s failed for job %d", outcome.fileName, jobID), outcome.err, nil)
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", outcome.fileName, outcome.err))
			continue
		}
		result.Processed++
	}

	return result
}

// processOne fetches the attachment bytes, uploads them under
// {tenant}/{job_id}/{file_name} and upserts the record with the signed URL.
func (e *FanOutEngine) processOne(ctx context.Context, upstream UpstreamClient, jobID int64, tenant string, att servicetitan.Attachment, now time.Time) error {
	data, err := upstream.GetAttachment(ctx, att.ID)
	if err != nil {
		return errors.WrapError(err, errors.CodeAttachmentDownload, "download failed", errors.ErrInternalServer.Status)
	}

	key := fmt.Sprintf("%s/%d/%s", tenant, jobID, att.FileName)
	signedURL, err := e.objectStore.UploadSigned(ctx, key, data)
	if err != nil {
		return errors.WrapError(err, errors.CodeObjectStoreWrite, "upload failed", errors.ErrInternalServer.Status)
	}

	rec := &models.AttachmentRecord{
		AttachmentID: att.ID,
		JobID:        jobID,
		Tenant:       tenant,
		Type:         attachments.Classify(att.FileName),
		URL:          signedURL,
		FileName:     att.FileName,
		FileDate:     att.CreatedOn,
		FileBy:       att.CreatedByID,
		UploadedAt:   now,
	}
	if err := e.records.Upsert(ctx, rec); err != nil {
		return err
	}

	return nil
}
