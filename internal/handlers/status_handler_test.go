package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attachments-api/internal/middleware"
	"attachments-api/internal/models"

	"github.com/gin-gonic/gin"
)

type fakeStatusReader struct {
	rows map[int64]*models.JobProcessingStatus
}

func (f *fakeStatusReader) GetStatus(ctx context.Context, jobID int64, tenant string) (*models.JobProcessingStatus, error) {
	if row, ok := f.rows[jobID]; ok {
		return row, nil
	}
	return &models.JobProcessingStatus{JobID: jobID, Tenant: tenant, Status: models.JobStatusPending}, nil
}

type fakeLister struct {
	records []*models.AttachmentRecord
}

func (f *fakeLister) ListByJob(ctx context.Context, jobID int64, tenant string) ([]*models.AttachmentRecord, error) {
	return f.records, nil
}

func newStatusRouter(t *testing.T, status StatusReader, records AttachmentLister) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorMiddleware())
	h := NewStatusHandler(status, records)
	router.GET("/jobs/:job_id/status", h.GetStatus)
	router.GET("/jobs/:job_id/attachments", h.ListAttachments)
	return router
}

func TestGetStatusDefaultsToPending(t *testing.T) {
	router := newStatusRouter(t, &fakeStatusReader{}, &fakeLister{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/99/status?tenant=bravogolf", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp models.JobStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != int(models.JobStatusPending) || resp.StatusText != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetStatusErroredJob(t *testing.T) {
	now := time.Now()
	reader := &fakeStatusReader{rows: map[int64]*models.JobProcessingStatus{
		7: {JobID: 7, Tenant: "t", Status: models.JobStatusError, ErrorMessage: "download failed: timeout", LastUpdate: &now},
	}}
	router := newStatusRouter(t, reader, &fakeLister{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/7/status?tenant=t", nil)
	router.ServeHTTP(w, req)

	var resp models.JobStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != int(models.JobStatusError) || resp.ErrorMessage == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetStatusRequiresTenant(t *testing.T) {
	router := newStatusRouter(t, &fakeStatusReader{}, &fakeLister{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/99/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetStatusRejectsBadJobID(t *testing.T) {
	router := newStatusRouter(t, &fakeStatusReader{}, &fakeLister{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-number/status?tenant=t", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListAttachments(t *testing.T) {
	lister := &fakeLister{records: []*models.AttachmentRecord{
		{AttachmentID: 1, JobID: 5, Tenant: "t", Type: models.AttachmentTypeImage, URL: "https://signed.example/a.jpg", FileName: "a.jpg", FileBy: 12},
		{AttachmentID: 2, JobID: 5, Tenant: "t", Type: models.AttachmentTypePDF, URL: "https://signed.example/b.pdf", FileName: "b.pdf", FileBy: 12},
	}}
	router := newStatusRouter(t, &fakeStatusReader{}, lister)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/5/attachments?tenant=t", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Attachments []models.AttachmentListItem `json:"attachments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(resp.Attachments))
	}
	if resp.Attachments[0].Type != models.AttachmentTypeImage || resp.Attachments[1].Type != models.AttachmentTypePDF {
		t.Fatalf("unexpected attachment types: %+v", resp.Attachments)
	}
}
