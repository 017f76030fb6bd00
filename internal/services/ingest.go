package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"attachments-api/config"
	"attachments-api/internal/models"
	"attachments-api/pkg/errors"

	fylogger "github.com/FyersDev/trading-logger-go"
)

// StatusStore persists per-job lifecycle state.
type StatusStore interface {
	GetStatus(ctx context.Context, jobID int64, tenant string) (*models.JobProcessingStatus, error)
	SetProcessing(ctx context.Context, jobID int64, tenant string, force bool, now time.Time) (bool, error)
	SetProcessed(ctx context.Context, jobID int64, tenant string, count int, now time.Time) error
	SetError(ctx context.Context, jobID int64, tenant string, message string, now time.Time) error
}

// UpstreamDirectory resolves the API client for a tenant.
type UpstreamDirectory interface {
	ForTenant(tenant string) (UpstreamClient, error)
}

// IngestService drives a single processing pass for a job:
// idempotency check, processing claim, fan-out, terminal transition.
// It runs to completion within the delivering HTTP request.
type IngestService struct {
	status    StatusStore
	upstream  UpstreamDirectory
	fanout    *FanOutEngine
	threshold float64
	loc       *time.Location
}

func NewIngestService(status StatusStore, upstream UpstreamDirectory, fanout *FanOutEngine, cfg *config.Config) *IngestService {
	loc, err := time.LoadLocation(cfg.Worker.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", cfg.Worker.Timezone)
		loc = time.UTC
	}

	threshold := cfg.Worker.FailureThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 1.0
	}

	return &IngestService{
		status:    status,
		upstream:  upstream,
		fanout:    fanout,
		threshold: threshold,
		loc:       loc,
	}
}

func (s *IngestService) now() time.Time {
	return time.Now().In(s.loc)
}

// ProcessJob performs one processing pass. Deliveries for an already
// processed job short-circuit unless forceRefresh is set, which is what
// makes duplicate queue deliveries safe. A delivery that loses the
// processing claim to a concurrent one returns ErrProcessingConflict.
func (s *IngestService) ProcessJob(ctx context.Context, jobID int64, tenant string, forceRefresh bool) (*models.ProcessJobResponse, error) {
	current, err := s.status.GetStatus(ctx, jobID, tenant)
	if err != nil {
		return nil, err
	}

	if current.Status == models.JobStatusProcessed && !forceRefresh {
		msg := "Job already processed; not refreshing."
		return &models.ProcessJobResponse{
			Status:  models.ProcessResultSkipped,
			JobID:   jobID,
			Message: &msg,
		}, nil
	}

	claimed, err := s.status.SetProcessing(ctx, jobID, tenant, forceRefresh, s.now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		fylogger.InfoLog(ctx, fmt.Sprintf("Job %d (%s) already claimed by a concurrent delivery", jobID, tenant), nil)
		return nil, errors.ErrProcessingConflict
	}

	count, failures, err := s.runPass(ctx, jobID, tenant)
	if err != nil {
		s.recordError(ctx, jobID, tenant, err)
		return nil, err
	}

	if err := s.status.SetProcessed(ctx, jobID, tenant, count, s.now()); err != nil {
		return nil, err
	}

	resp := &models.ProcessJobResponse{
		Status:    models.ProcessResultProcessed,
		JobID:     jobID,
		NumImages: &count,
	}
	if len(failures) > 0 {
		msg := fmt.Sprintf("processed with %d failed attachments: %s", len(failures), strings.Join(failures, "; "))
		resp.Message = &msg
	}

	fylogger.InfoLog(ctx, fmt.Sprintf("Job %d (%s) processed, %d attachments", jobID, tenant, count), nil)
	return resp, nil
}

// runPass lists, classifies and fans out. It returns the number of
// attachments durably written plus any below-threshold failure messages.
func (s *IngestService) runPass(ctx context.Context, jobID int64, tenant string) (int, []string, error) {
	client, err := s.upstream.ForTenant(tenant)
	if err != nil {
		return 0, nil, errors.WrapError(err, errors.CodeUpstreamFetch, "no upstream client for tenant", errors.ErrInternalServer.Status)
	}

	atts, err := client.ListJobAttachments(ctx, jobID)
	if err != nil {
		return 0, nil, errors.WrapError(err, errors.CodeUpstreamFetch, "attachment listing failed", errors.ErrInternalServer.Status)
	}

	result := s.fanout.Run(ctx, client, jobID, tenant, atts, s.now())

	failed := len(result.Failures)
	total := result.Processed + failed
	if failed > 0 && float64(failed)/float64(total) >= s.threshold {
		return 0, nil, errors.NewError(errors.CodeAttachmentDownload,
			fmt.Sprintf("%d of %d attachments failed: %s", failed, total, strings.Join(result.Failures, "; ")),
			errors.ErrInternalServer.Status)
	}

	return result.Processed, result.Failures, nil
}

// recordError stores the failure on the status row so the poller can
// surface it. Successes the fan-out already wrote stay in place.
func (s *IngestService) recordError(ctx context.Context, jobID int64, tenant string, procErr error) {
	fylogger.ErrorLog(ctx, fmt.Sprintf("Error processing job %d (%s)", jobID, tenant), procErr, nil)
	if err := s.status.SetError(ctx, jobID, tenant, procErr.Error(), s.now()); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to record error for job %d (%s)", jobID, tenant), err, nil)
	}
}
