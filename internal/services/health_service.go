package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"studycoach/internal/config"
	"studycoach/internal/jobs"
	"studycoach/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	jobQueue  *jobs.JobQueue
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(paths *config.Paths, jobQueue *jobs.JobQueue, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:     paths,
		jobQueue:  jobQueue,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns the overall service health: queue stats, data
// directory reachability, and runtime info.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}

	if s.jobQueue != nil {
		status.Services["job_queue"] = s.jobQueue.GetQueueStats()
	}

	if s.paths != nil {
		if _, err := os.Stat(s.paths.DataDir); err != nil {
			status.Status = "degraded"
			status.Services["data_dir"] = map[string]string{
				"status": "unreachable",
				"error":  err.Error(),
			}
		} else {
			status.Services["data_dir"] = map[string]string{"status": "ok"}
		}
	}

	return status
}

// ReadinessCheck reports whether the service can accept work.
func (s *HealthService) ReadinessCheck(ctx context.Context) map[string]interface{} {
	ready := true
	if s.paths != nil {
		if _, err := os.Stat(s.paths.DataDir); err != nil {
			ready = false
		}
	}

	return map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now(),
	}
}

// LivenessCheck reports that the process is alive.
func (s *HealthService) LivenessCheck(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
	}
}

// Version returns detailed build and version information.
func (s *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
