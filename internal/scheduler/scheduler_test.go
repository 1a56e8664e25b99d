package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/service"
)

type recordingLoader struct {
	mu    sync.Mutex
	dates []time.Time
	err   error
}

func (l *recordingLoader) LoadDate(_ context.Context, date time.Time) (*service.LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dates = append(l.dates, date)
	if l.err != nil {
		return nil, l.err
	}
	return &service.LoadReport{Date: date, Applied: true}, nil
}

func (l *recordingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dates)
}

func TestTodayUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	s := NewScheduler(&recordingLoader{}, paris, nil)
	// 23:30 UTC is already the next day in Paris
	s.now = func() time.Time { return time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC) }

	today := s.Today()

	assert.Equal(t, "2024-06-16", today.Format("2006-01-02"))
	assert.Equal(t, paris, today.Location())
	assert.Zero(t, today.Hour())
}

func TestRefreshToday(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader, time.UTC, nil)
	s.now = func() time.Time { return time.Date(2024, 6, 16, 14, 5, 0, 0, time.UTC) }

	report, err := s.RefreshToday(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Applied)
	require.Len(t, loader.dates, 1)
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), loader.dates[0])
}

func TestRefreshTodayPropagatesError(t *testing.T) {
	loader := &recordingLoader{err: errors.New("provider down")}
	s := NewScheduler(loader, nil, nil)

	_, err := s.RefreshToday(context.Background())

	assert.ErrorContains(t, err, "provider down")
}

func TestScheduleRejectsInvalidCron(t *testing.T) {
	s := NewScheduler(&recordingLoader{}, time.UTC, nil)

	_, err := s.ScheduleMeetingRefresh("not a cron")

	assert.Error(t, err)
	assert.Empty(t, s.Entries())
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(&recordingLoader{}, time.UTC, nil)

	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(&recordingLoader{}, time.UTC, nil)

	id, err := s.ScheduleMeetingRefresh("*/10 * * * *")
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)
	assert.True(t, s.GetNextRun().IsZero(), "no next run before start")

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.False(t, s.GetNextRun().IsZero())

	_, err = s.ScheduleMeetingRefresh("@hourly")
	assert.Error(t, err, "jobs cannot be added while running")
	assert.Error(t, s.RemoveJob(id))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())

	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.Entries())
}

func TestScheduledJobRuns(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader, time.UTC, nil)

	_, err := s.ScheduleMeetingRefresh("@every 1s")
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return loader.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}
