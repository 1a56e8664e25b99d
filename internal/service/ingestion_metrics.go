package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/race-insights/internal/metrics"
)

// IngestionStats is a point-in-time copy of the ingestion counters
type IngestionStats struct {
	StartTime       time.Time
	LastLoad        time.Time
	LastDuration    time.Duration
	Loads           int
	FetchErrors     int
	TotalRecords    int
	AcceptedRecords int
	RejectedRecords int
	StaleResponses  int
}

// IngestionMetrics tracks statistics about meeting loads since the last reset
type IngestionMetrics struct {
	mu    sync.RWMutex
	stats IngestionStats
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		stats: IngestionStats{StartTime: time.Now()},
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = IngestionStats{StartTime: time.Now()}
}

// RecordFetchError counts a failed fetch
func (m *IngestionMetrics) RecordFetchError(source string, duration time.Duration) {
	m.mu.Lock()
	m.stats.FetchErrors++
	m.mu.Unlock()

	metrics.RecordFetch(source, "error", duration.Seconds())
}

// RecordLoad counts a completed fetch and its validation outcome
func (m *IngestionMetrics) RecordLoad(source string, report *LoadReport) {
	m.mu.Lock()
	m.stats.Loads++
	m.stats.LastLoad = time.Now()
	m.stats.LastDuration = report.Duration
	m.stats.TotalRecords += report.Fetched
	m.stats.AcceptedRecords += report.Accepted
	m.stats.RejectedRecords += len(report.Rejected)
	if !report.Applied {
		m.stats.StaleResponses++
	}
	m.mu.Unlock()

	outcome := "applied"
	if !report.Applied {
		outcome = "stale"
	}
	metrics.RecordFetch(source, outcome, report.Duration.Seconds())
	metrics.RecordIngestion(report.Accepted, len(report.Rejected))
}

// Snapshot returns a copy of the counters
func (m *IngestionMetrics) Snapshot() IngestionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	s := m.Snapshot()

	acceptRate := float64(0)
	if s.TotalRecords > 0 {
		acceptRate = float64(s.AcceptedRecords) / float64(s.TotalRecords) * 100
	}

	return fmt.Sprintf(
		"IngestionMetrics{Loads=%d, FetchErrors=%d, Records=%d, Accepted=%d (%.1f%%), Rejected=%d, Stale=%d, LastDuration=%v}",
		s.Loads,
		s.FetchErrors,
		s.TotalRecords,
		s.AcceptedRecords,
		acceptRate,
		s.RejectedRecords,
		s.StaleResponses,
		s.LastDuration,
	)
}
