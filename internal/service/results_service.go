package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/analysis"
	"github.com/yourusername/race-insights/internal/datasource"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/models"
	"github.com/yourusername/race-insights/internal/session"
	"github.com/yourusername/race-insights/internal/statistics"
	"github.com/yourusername/race-insights/internal/tracing"
)

// MeetingArchive stores accepted meetings
type MeetingArchive interface {
	SaveMeeting(ctx context.Context, date time.Time, records []models.RaceRecord) error
}

// LoadReport describes the outcome of one meeting load
type LoadReport struct {
	Sequence     uint64
	Date         time.Time
	Source       string
	Fetched      int
	Accepted     int
	Rejected     []*models.SchemaError
	Applied      bool
	Duration     time.Duration
	ArchiveError error
}

// ResultsService fetches a meeting, validates it, attaches statistics and
// hands it to the session when the request is still the latest one
type ResultsService struct {
	source     datasource.ResultsSource
	session    *session.Session
	validator  *DataValidator
	normalizer *DataNormalizer
	analyses   *analysis.Cache
	archive    MeetingArchive
	metrics    *IngestionMetrics
	logger     *logger.IngestionLogger

	mu         sync.RWMutex
	lastReport *LoadReport
}

// NewResultsService creates a new results service
func NewResultsService(
	source datasource.ResultsSource,
	sess *session.Session,
	analyses *analysis.Cache,
	log *logrus.Logger,
) *ResultsService {
	log = logger.OrNop(log)
	if analyses == nil {
		analyses = analysis.NewCache(nil, 15*time.Minute, 500)
	}

	return &ResultsService{
		source:     source,
		session:    sess,
		validator:  NewDataValidator(log),
		normalizer: NewDataNormalizer(log),
		analyses:   analyses,
		metrics:    NewIngestionMetrics(),
		logger:     logger.NewIngestionLogger(log),
	}
}

// WithArchive stores every applied meeting in the archive. Loads served by
// the archive itself are not written back.
func (s *ResultsService) WithArchive(archive MeetingArchive) *ResultsService {
	s.archive = archive
	return s
}

// LoadDate fetches and applies the meeting of a date. A failed fetch returns a
// *models.FetchError and leaves the session untouched. A response overtaken
// by a newer request is validated but not applied; Applied reports which.
func (s *ResultsService) LoadDate(ctx context.Context, date time.Time) (*LoadReport, error) {
	name := s.source.Name()
	seq := s.session.BeginRequest()
	s.logger.LogFetchStarted(name, date, seq)

	start := time.Now()
	var raw []models.RaceRecord
	err := tracing.Trace(ctx, "fetch_results", map[string]interface{}{
		"source": name,
		"date":   date.Format("2006-01-02"),
	}, func(ctx context.Context) error {
		var err error
		raw, err = s.source.FetchResults(ctx, date)
		return err
	})
	if err != nil {
		s.metrics.RecordFetchError(name, time.Since(start))
		s.logger.LogFetchFailed(name, date, seq, err)
		return nil, models.NewFetchError(name, date, err)
	}

	valid, rejected := s.validator.ValidateMeeting(s.normalizer.NormalizeMeeting(raw))
	for i := range valid {
		valid[i] = valid[i].WithStatistics(statistics.Compute(&valid[i]))
	}

	applied := s.session.ApplyResponse(seq, valid)
	report := &LoadReport{
		Sequence: seq,
		Date:     date,
		Source:   name,
		Fetched:  len(raw),
		Accepted: len(valid),
		Rejected: rejected,
		Applied:  applied,
		Duration: time.Since(start),
	}
	s.metrics.RecordLoad(name, report)

	if applied && s.archive != nil && name != datasource.ArchiveSourceName {
		if err := s.archive.SaveMeeting(ctx, date, valid); err != nil {
			report.ArchiveError = fmt.Errorf("failed to archive meeting: %w", err)
			s.logger.WithError(err).Warn("Failed to archive meeting")
		}
	}

	s.logger.LogLoadCompleted(name, seq, report.Accepted, len(rejected), applied, report.Duration)

	if applied {
		s.mu.Lock()
		s.lastReport = report
		s.mu.Unlock()
	}
	return report, nil
}

// SelectedAnalysis returns the analysis of the selected race
func (s *ResultsService) SelectedAnalysis() (models.Analysis, error) {
	race, ok := s.session.Selected()
	if !ok {
		return models.Analysis{}, models.NewPreconditionError("analysis", "no race selected")
	}
	return s.analyses.Get(&race)
}

// Analysis returns the analysis of a race of the working set
func (s *ResultsService) Analysis(raceID string) (models.Analysis, error) {
	for _, race := range s.session.Records() {
		if race.ID == raceID {
			return s.analyses.Get(&race)
		}
	}
	return models.Analysis{}, fmt.Errorf("analysis of %s: %w", raceID, models.ErrRaceNotFound)
}

// MeetingSummary summarizes the whole working set, ignoring the venue filter
func (s *ResultsService) MeetingSummary() models.MeetingSummary {
	return statistics.SummarizeMeeting(s.session.Records())
}

// LastReport returns the report of the last applied load
func (s *ResultsService) LastReport() (*LoadReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport, s.lastReport != nil
}

// Ready reports whether a meeting has been applied
func (s *ResultsService) Ready() bool {
	_, ok := s.LastReport()
	return ok
}

// Session returns the session driven by this service
func (s *ResultsService) Session() *session.Session {
	return s.session
}

// SourceName returns the name of the configured source
func (s *ResultsService) SourceName() string {
	return s.source.Name()
}

// Metrics returns the ingestion counters
func (s *ResultsService) Metrics() IngestionStats {
	return s.metrics.Snapshot()
}
