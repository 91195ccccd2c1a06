package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	data      *DataService
	maxAge    time.Duration
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Version     string                 `json:"version"`
	RunID       string                 `json:"run_id,omitempty"`
	RefreshedAt *time.Time             `json:"refreshed_at,omitempty"`
	SnapshotAge string                 `json:"snapshot_age,omitempty"`
	Failures    []string               `json:"failures,omitempty"`
	Runtime     map[string]interface{} `json:"runtime,omitempty"`
}

// Health states
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusNotReady = "not_ready"
)

// NewHealthService creates a health service. A snapshot older than maxAge
// reports degraded; zero disables the age check.
func NewHealthService(version string, data *DataService, maxAge time.Duration, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		data:      data,
		maxAge:    maxAge,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck reports the snapshot state without triggering a pipeline run
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	now := time.Now()
	status := HealthStatus{
		Status:    HealthStatusOK,
		Timestamp: now,
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}

	snap, ok := hs.data.Ready()
	if !ok {
		status.Status = HealthStatusNotReady
		return status
	}

	refreshed := snap.RefreshedAt
	status.RunID = snap.RunID
	status.RefreshedAt = &refreshed
	age := snap.Age(now)
	status.SnapshotAge = age.Round(time.Second).String()

	for _, st := range snap.Statuses() {
		if st.Status != CategoryStatusOK {
			status.Failures = append(status.Failures, st.Name)
		}
	}
	if len(status.Failures) > 0 || (hs.maxAge > 0 && age > hs.maxAge) {
		status.Status = HealthStatusDegraded
	}

	hs.logger.DebugContext(ctx, "Health check completed",
		slog.String("status", status.Status),
		slog.String("snapshot_age", status.SnapshotAge))
	return status
}
