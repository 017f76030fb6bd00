package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attachments-api/config"
	"attachments-api/internal/models"
	"attachments-api/pkg/servicetitan"
)

// In-memory fakes standing in for the pgx repositories, the S3 client and
// the upstream API so the pipeline can be exercised end to end.

type fakeUpstream struct {
	mu            sync.Mutex
	attachments   []servicetitan.Attachment
	listErr       error
	failDownloads map[int64]error
	listCalls     int
	downloadCalls int
}

func (f *fakeUpstream) ListJobAttachments(ctx context.Context, jobID int64) ([]servicetitan.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]servicetitan.Attachment(nil), f.attachments...), nil
}

func (f *fakeUpstream) GetAttachment(ctx context.Context, attachmentID int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls++
	if err, ok := f.failDownloads[attachmentID]; ok {
		return nil, err
	}
	return []byte(fmt.Sprintf("bytes-of-%d", attachmentID)), nil
}

type fakeDirectory struct {
	client UpstreamClient
	err    error
}

func (f fakeDirectory) ForTenant(tenant string) (UpstreamClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploads: make(map[string][]byte)}
}

func (f *fakeObjectStore) UploadSigned(ctx context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads[key] = data
	return "https://signed.example/" + key + "?sig=abc", nil
}

type fakeAttachmentStore struct {
	mu      sync.Mutex
	records map[int64]*models.AttachmentRecord
	upserts int
}

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{records: make(map[int64]*models.AttachmentRecord)}
}

func (f *fakeAttachmentStore) Upsert(ctx context.Context, rec *models.AttachmentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[rec.AttachmentID] = &cp
	f.upserts++
	return nil
}

func (f *fakeAttachmentStore) ListByJob(ctx context.Context, jobID int64, tenant string) ([]*models.AttachmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AttachmentRecord
	for _, rec := range f.records {
		if rec.JobID == jobID && rec.Tenant == tenant {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAttachmentStore) typeCounts() map[models.AttachmentType]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.AttachmentType]int)
	for _, rec := range f.records {
		counts[rec.Type]++
	}
	return counts
}

type fakeStatusStore struct {
	mu   sync.Mutex
	rows map[string]*models.JobProcessingStatus
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{rows: make(map[string]*models.JobProcessingStatus)}
}

func statusKey(jobID int64, tenant string) string {
	return fmt.Sprintf("%d|%s", jobID, tenant)
}

func (f *fakeStatusStore) GetStatus(ctx context.Context, jobID int64, tenant string) (*models.JobProcessingStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[statusKey(jobID, tenant)]; ok {
		cp := *row
		return &cp, nil
	}
	return &models.JobProcessingStatus{JobID: jobID, Tenant: tenant, Status: models.JobStatusPending}, nil
}

func (f *fakeStatusStore) SetProcessing(ctx context.Context, jobID int64, tenant string, force bool, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := statusKey(jobID, tenant)
	if row, ok := f.rows[key]; ok && row.Status == models.JobStatusProcessing && !force {
		return false, nil
	}
	f.rows[key] = &models.JobProcessingStatus{
		JobID:      jobID,
		Tenant:     tenant,
		Status:     models.JobStatusProcessing,
		LastUpdate: &now,
	}
	return true, nil
}

func (f *fakeStatusStore) SetProcessed(ctx context.Context, jobID int64, tenant string, count int, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[statusKey(jobID, tenant)] = &models.JobProcessingStatus{
		JobID:      jobID,
		Tenant:     tenant,
		Status:     models.JobStatusProcessed,
		LastUpdate: &now,
	}
	return nil
}

func (f *fakeStatusStore) SetError(ctx context.Context, jobID int64, tenant string, message string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[statusKey(jobID, tenant)] = &models.JobProcessingStatus{
		JobID:        jobID,
		Tenant:       tenant,
		Status:       models.JobStatusError,
		ErrorMessage: message,
		LastUpdate:   &now,
	}
	return nil
}

func (f *fakeStatusStore) current(jobID int64, tenant string) models.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[statusKey(jobID, tenant)]; ok {
		return row.Status
	}
	return models.JobStatusPending
}

func testConfig() *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{
			MaxWorkers:       8,
			FailureThreshold: 1.0,
			Timezone:         "UTC",
		},
	}
}
