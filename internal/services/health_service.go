package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"capboard/internal/infrastructure"
)

// DatasetChecker reports whether the price source can currently be loaded
type DatasetChecker interface {
	CheckDataset(ctx context.Context) (loaded, skipped int, err error)
	SourceName() string
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	checker   DatasetChecker
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

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Loaded  int    `json:"loaded"`
	Skipped int    `json:"skipped"`
}

// NewHealthService creates a health service. checker may be nil, in which
// case readiness only reflects the process itself.
func NewHealthService(version string, checker DatasetChecker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		checker:   checker,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status with runtime figures
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   infrastructure.ReadRuntimeStats(hs.startTime).Map(),
	}
}

// ReadinessCheck loads the dataset once and reports not_ready when no entity
// could be loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}
	if hs.checker == nil {
		return status
	}

	data := ServiceHealth{Status: "ready"}
	loaded, skipped, err := hs.checker.CheckDataset(ctx)
	switch {
	case err != nil:
		data.Status = "error"
		data.Message = err.Error()
	case loaded == 0:
		data.Status = "empty"
		data.Message = "no entity has price data"
	}
	data.Loaded = loaded
	data.Skipped = skipped
	status.Services[hs.checker.SourceName()] = data

	if data.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("source", hs.checker.SourceName()),
			slog.String("status", data.Status),
			slog.String("message", data.Message),
		)
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}
