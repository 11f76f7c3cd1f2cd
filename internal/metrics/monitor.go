// Package metrics samples process resource usage (CPU and memory) and
// records it against a batch. Sampling is best-effort on every platform:
// values that cannot be read come back as zero, and recording failures
// are logged, never propagated.
package metrics

import (
	"context"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/store"
)

// cpuSampleWindow is how long two CPU-time readings are spaced apart when
// estimating instantaneous CPU usage.
const cpuSampleWindow = 100 * time.Millisecond

// userHZ is the kernel clock tick rate assumed when converting
// /proc/self/stat CPU times. 100 is the value on every mainstream Linux
// build.
const userHZ = 100.0

// Monitor samples resource usage and persists the samples.
type Monitor struct {
	metricStore store.MetricStore
	logger      *slog.Logger
}

// NewMonitor creates a resource monitor backed by the given metric store.
func NewMonitor(metricStore store.MetricStore, logger *slog.Logger) *Monitor {
	if metricStore == nil {
		panic("metric store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		metricStore: metricStore,
		logger:      logger.With(slog.String("component", "resource_monitor")),
	}
}

// Record samples current resource usage and persists it for the given
// batch and optional book. It never returns an error: metric recording is
// a side effect whose failure must not affect batch processing.
func (m *Monitor) Record(ctx context.Context, batchID string, bookID *int) {
	metric := m.Sample(ctx)
	metric.BatchID = batchID
	metric.BookID = bookID

	if err := m.metricStore.Insert(ctx, metric); err != nil {
		m.logger.ErrorContext(ctx, "failed to record resource metrics",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()))
		return
	}

	m.logger.DebugContext(ctx, "recorded resource metrics",
		slog.String("batch_id", batchID),
		slog.Float64("cpu_percent", metric.CPUUsagePercent),
		slog.Float64("memory_percent", metric.MemoryUsagePercent))
}

// Sample takes one point-in-time resource usage reading. Unreadable
// values are zero.
func (m *Monitor) Sample(ctx context.Context) *domain.ResourceMetric {
	memoryUsage := processMemoryBytes()
	availableMemory := availableMemoryBytes()

	var memoryPercent float64
	if availableMemory > 0 {
		memoryPercent = float64(memoryUsage) / float64(memoryUsage+availableMemory) * 100
	}

	return &domain.ResourceMetric{
		CPUUsagePercent:      round2(m.cpuUsagePercent(ctx)),
		MemoryUsageBytes:     memoryUsage,
		AvailableMemoryBytes: availableMemory,
		MemoryUsagePercent:   round2(memoryPercent),
		CreatedAt:            time.Now().UTC(),
	}
}

// cpuUsagePercent estimates CPU usage from the process CPU-time delta
// over a short window. Returns 0 when /proc is unavailable or the
// context is cancelled mid-window.
func (m *Monitor) cpuUsagePercent(ctx context.Context) float64 {
	start, ok := processCPUTicks()
	if !ok {
		return 0
	}

	select {
	case <-time.After(cpuSampleWindow):
	case <-ctx.Done():
		return 0
	}

	end, ok := processCPUTicks()
	if !ok {
		return 0
	}

	elapsed := cpuSampleWindow.Seconds()
	used := float64(end-start) / userHZ
	return math.Min(used/elapsed*100, 100)
}

// processCPUTicks reads utime+stime from /proc/self/stat.
func processCPUTicks() (uint64, bool) {
	data, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, false
	}

	// The comm field (2nd) is parenthesized and may contain spaces;
	// fields are counted after the closing parenthesis. utime and stime
	// are fields 14 and 15 overall, so indexes 11 and 12 in the
	// remainder.
	closing := strings.LastIndexByte(string(data), ')')
	if closing < 0 {
		return 0, false
	}
	fields := strings.Fields(string(data)[closing+1:])
	if len(fields) < 13 {
		return 0, false
	}

	utime, err1 := strconv.ParseUint(fields[11], 10, 64)
	stime, err2 := strconv.ParseUint(fields[12], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}

	return utime + stime, true
}

// processMemoryBytes returns the bytes of memory obtained from the OS by
// the Go runtime.
func processMemoryBytes() int64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int64(stats.Sys)
}

// availableMemoryBytes reads MemAvailable from /proc/meminfo. Returns 0
// on platforms without /proc.
func availableMemoryBytes() int64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}

	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
