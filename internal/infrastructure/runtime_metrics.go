package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of the Go runtime of this process
type RuntimeStats struct {
	Goroutines  int
	HeapAlloc   uint64
	HeapSys     uint64
	GCCount     uint32
	LastGCPause time.Duration
	CPUCount    int
	Uptime      time.Duration
	GoVersion   string
	CollectedAt time.Time
}

// ReadRuntimeStats reads the current runtime statistics
func ReadRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   mem.HeapAlloc,
		HeapSys:     mem.HeapSys,
		GCCount:     mem.NumGC,
		LastGCPause: time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:    runtime.NumCPU(),
		Uptime:      time.Since(startTime),
		GoVersion:   runtime.Version(),
		CollectedAt: time.Now(),
	}
}

// Map renders the snapshot for health responses
func (s RuntimeStats) Map() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":       s.Goroutines,
		"heap_alloc_mb":    s.HeapAlloc / 1024 / 1024,
		"heap_sys_mb":      s.HeapSys / 1024 / 1024,
		"gc_count":         s.GCCount,
		"last_gc_pause_ms": s.LastGCPause.Milliseconds(),
		"cpu_count":        s.CPUCount,
		"uptime":           s.Uptime.Seconds(),
		"go_version":       s.GoVersion,
	}
}

// RegisterRuntimeMetrics exposes goroutine, heap, GC and uptime gauges that
// are read on every collection. Unregister the returned registration on
// shutdown.
func RegisterRuntimeMetrics(meter metric.Meter, startTime time.Time) (metric.Registration, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"process_goroutines",
		metric.WithDescription("Number of live goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("goroutines gauge: %w", err)
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"process_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("heap gauge: %w", err)
	}

	gcCount, err := meter.Int64ObservableCounter(
		"process_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("gc counter: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"process_uptime_seconds",
		metric.WithDescription("Seconds since the service started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("uptime gauge: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := ReadRuntimeStats(startTime)
		o.ObserveInt64(goroutines, int64(stats.Goroutines))
		o.ObserveInt64(heapAlloc, int64(stats.HeapAlloc))
		o.ObserveInt64(gcCount, int64(stats.GCCount))
		o.ObserveFloat64(uptime, stats.Uptime.Seconds())
		return nil
	}, goroutines, heapAlloc, gcCount, uptime)
}
