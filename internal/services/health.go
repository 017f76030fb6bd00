package services

import (
	"context"
	"time"

	"attachments-api/pkg/memorydb"
	"attachments-api/pkg/postgres"
)

// HealthStatus represents the status of a dependency
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// HealthService handles health check operations
type HealthService struct {
	db    *postgres.DB
	redis *memorydb.RedisClient
}

func NewHealthService(db *postgres.DB, redis *memorydb.RedisClient) *HealthService {
	return &HealthService{
		db:    db,
		redis: redis,
	}
}

// Check pings the database and the task queue backend
func (s *HealthService) Check(ctx context.Context) map[string]HealthStatus {
	status := make(map[string]HealthStatus)

	if err := s.db.Ping(ctx); err != nil {
		status["database"] = HealthStatus{
			Status:    "error",
			Timestamp: time.Now(),
			Details:   err.Error(),
		}
	} else {
		status["database"] = HealthStatus{
			Status:    "ok",
			Timestamp: time.Now(),
		}
	}

	if err := s.redis.Ping(ctx); err != nil {
		status["task_queue"] = HealthStatus{
			Status:    "error",
			Timestamp: time.Now(),
			Details:   err.Error(),
		}
	} else {
		status["task_queue"] = HealthStatus{
			Status:    "ok",
			Timestamp: time.Now(),
		}
	}

	return status
}

// Healthy reports whether every dependency check passed
func (s *HealthService) Healthy(ctx context.Context) bool {
	for _, st := range s.Check(ctx) {
		if st.Status != "ok" {
			return false
		}
	}
	return true
}
