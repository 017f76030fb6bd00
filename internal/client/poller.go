package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"attachments-api/internal/models"
)

// Poller is the consuming side of the pipeline: it triggers processing
// for a job and polls status until a terminal outcome. The caller bounds
// the wait through the context; an expired context surfaces as a
// timed-out outcome rather than an endless loop.
type Poller struct {
	baseURL    string
	httpClient *http.Client
	interval   time.Duration
}

func NewPoller(baseURL string, interval time.Duration) *Poller {
	return &Poller{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		interval:   interval,
	}
}

// JobOutcome is the terminal result of one wait.
type JobOutcome struct {
	Status       models.JobStatus
	ErrorMessage string
	Attachments  []models.AttachmentListItem
	TimedOut     bool
}

type attachmentListResponse struct {
	Attachments []models.AttachmentListItem `json:"attachments"`
}

// WaitForJob polls until the job is processed, errored, or the context
// expires. A pending job is submitted for processing first; forceRefresh
// resubmits even an already processed job.
func (p *Poller) WaitForJob(ctx context.Context, jobID int64, tenant string, forceRefresh bool) (*JobOutcome, error) {
	enqueued := false

	if forceRefresh {
		if err := p.enqueue(ctx, jobID, tenant, true); err != nil {
			return nil, err
		}
		enqueued = true
		if timedOut := p.wait(ctx); timedOut {
			return &JobOutcome{TimedOut: true}, nil
		}
	}

	for {
		st, err := p.getStatus(ctx, jobID, tenant)
		if err != nil {
			return nil, err
		}

		switch models.JobStatus(st.Status) {
		case models.JobStatusProcessed:
			atts, err := p.listAttachments(ctx, jobID, tenant)
			if err != nil {
				return nil, err
			}
			return &JobOutcome{Status: models.JobStatusProcessed, Attachments: atts}, nil

		case models.JobStatusError:
			return &JobOutcome{Status: models.JobStatusError, ErrorMessage: st.ErrorMessage}, nil

		case models.JobStatusPending:
			if !enqueued {
				if err := p.enqueue(ctx, jobID, tenant, false); err != nil {
					return nil, err
				}
				enqueued = true
			}
		}

		if timedOut := p.wait(ctx); timedOut {
			return &JobOutcome{TimedOut: true}, nil
		}
	}
}

// wait sleeps one poll interval; returns true when the context expired.
func (p *Poller) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(p.interval):
		return false
	}
}

func (p *Poller) getStatus(ctx context.Context, jobID int64, tenant string) (*models.JobStatusResponse, error) {
	url := fmt.Sprintf("%s/jobs/%d/status?tenant=%s", p.baseURL, jobID, tenant)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	var st models.JobStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &st, nil
}

func (p *Poller) listAttachments(ctx context.Context, jobID int64, tenant string) ([]models.AttachmentListItem, error) {
	url := fmt.Sprintf("%s/jobs/%d/attachments?tenant=%s", p.baseURL, jobID, tenant)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attachment listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment listing returned %d", resp.StatusCode)
	}

	var listing attachmentListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode attachment listing: %w", err)
	}

	return listing.Attachments, nil
}

func (p *Poller) enqueue(ctx context.Context, jobID int64, tenant string, forceRefresh bool) error {
	body, err := json.Marshal(models.ProcessJobRequest{
		JobID:        jobID,
		Tenant:       tenant,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/jobs/enqueue", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enqueue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("enqueue request returned %d", resp.StatusCode)
	}

	return nil
}
