package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"salesetl/pkg/contracts"
)

// HealthService reports liveness and the outcome of the last run
type HealthService struct {
	pipeline  *PipelineService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	LastRun   *LastRunStatus         `json:"last_run,omitempty"`
}

// LastRunStatus describes the most recent pipeline run
type LastRunStatus struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
	Running    bool      `json:"running"`
}

// NewHealthService creates a new health service
func NewHealthService(pipeline *PipelineService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		pipeline:  pipeline,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status. The service is "ok" even when
// the last run failed; the failure is reported under last_run.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}

	if hs.pipeline != nil {
		running := hs.pipeline.Running()
		if record, ok := hs.pipeline.LastRun(); ok {
			status.LastRun = &LastRunStatus{
				ID:         record.Result.ID,
				Status:     string(record.Result.Status),
				FinishedAt: record.FinishedAt,
				Error:      record.Result.Error,
				Running:    running,
			}
		} else if running {
			status.LastRun = &LastRunStatus{Status: "running", Running: true}
		}
	}

	hs.logger.DebugContext(ctx, "Health check completed", slog.String("status", status.Status))
	return status
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
