// Package session holds the selection and view state of one client: the
// working set of races, the venue filter, the selected race and the active view.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/metrics"
	"github.com/yourusername/race-insights/internal/models"
)

// ViewMode is the active presentation
type ViewMode string

const (
	ListView     ViewMode = "list"
	AnalysisView ViewMode = "analysis"
	StatsView    ViewMode = "stats"
)

// ParseViewMode converts a client-supplied name into a ViewMode
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(strings.ToLower(strings.TrimSpace(s))); v {
	case ListView, AnalysisView, StatsView:
		return v, nil
	default:
		return "", models.NewPreconditionError("select view", fmt.Sprintf("unknown view %q", s))
	}
}

// Session is the selection/view state machine. It is safe for concurrent use;
// observers are notified after the state is fully updated, outside the lock.
type Session struct {
	mu          sync.RWMutex
	view        ViewMode
	records     []models.RaceRecord
	filtered    []models.RaceRecord
	selected    *models.RaceRecord
	venueFilter string
	issued      uint64
	applied     uint64

	version uint64

	notifyMu     sync.Mutex
	delivered    uint64
	observers    map[int]Observer
	nextObserver int

	logger *logger.SessionLogger
}

// New creates a session in the list view with no records and no selection
func New(log *logrus.Logger) *Session {
	return &Session{
		view:        ListView,
		venueFilter: models.AllVenues,
		observers:   make(map[int]Observer),
		logger:      logger.NewSessionLogger(logger.OrNop(log)),
	}
}

// View returns the active view
func (s *Session) View() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// VenueFilter returns the active venue filter
func (s *Session) VenueFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.venueFilter
}

// Selected returns the selected race, if any
func (s *Session) Selected() (models.RaceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedLocked()
}

func (s *Session) selectedLocked() (models.RaceRecord, bool) {
	if s.selected == nil {
		return models.RaceRecord{}, false
	}
	return *s.selected, true
}

// Records returns the full working set in record order
func (s *Session) Records() []models.RaceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RaceRecord(nil), s.records...)
}

// FilteredResults returns the races matching the venue filter in record order
func (s *Session) FilteredResults() []models.RaceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RaceRecord(nil), s.filtered...)
}

// Hippodromes lists the distinct venues of the working set in first-seen order
func (s *Session) Hippodromes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return venues(s.records)
}

// SelectView switches the active view. The analysis view requires a selection;
// a rejected transition leaves the state unchanged.
func (s *Session) SelectView(target ViewMode) error {
	if _, err := ParseViewMode(string(target)); err != nil {
		metrics.RecordViewTransition(string(target), false)
		s.logger.LogRejectedTransition(string(target), "unknown view")
		return err
	}

	s.mu.Lock()
	if target == AnalysisView && s.selected == nil {
		s.mu.Unlock()
		metrics.RecordViewTransition(string(target), false)
		s.logger.LogRejectedTransition(string(target), "no race selected")
		return models.NewPreconditionError("select view", "analysis requires a selected race")
	}
	from := s.view
	if from == target {
		s.mu.Unlock()
		metrics.RecordViewTransition(string(target), true)
		return nil
	}
	s.view = target
	change := s.changeLocked(ChangeView)
	s.mu.Unlock()

	metrics.RecordViewTransition(string(target), true)
	s.logger.LogViewChange(string(from), string(target))
	s.notify(change)
	return nil
}

// SelectRace selects a race; the view is unchanged
func (s *Session) SelectRace(race models.RaceRecord) {
	s.mu.Lock()
	s.selected = &race
	change := s.changeLocked(ChangeSelection)
	s.mu.Unlock()

	s.notify(change)
}

// SelectRaceByID selects a race of the working set by ID
func (s *Session) SelectRaceByID(id string) error {
	s.mu.Lock()
	race, ok := s.find(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("select race %s: %w", id, models.ErrRaceNotFound)
	}
	s.selected = &race
	change := s.changeLocked(ChangeSelection)
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// ClearSelection drops the selection, leaving the analysis view if it is active
func (s *Session) ClearSelection() {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return
	}
	s.selected = nil
	if s.view == AnalysisView {
		s.view = ListView
	}
	change := s.changeLocked(ChangeSelection)
	s.mu.Unlock()

	s.notify(change)
}

// SetVenueFilter narrows the filtered results to one venue; "" or "all" shows every race
func (s *Session) SetVenueFilter(venue string) {
	venue = strings.TrimSpace(venue)
	if venue == "" {
		venue = models.AllVenues
	}

	s.mu.Lock()
	if s.venueFilter == venue {
		s.mu.Unlock()
		return
	}
	s.venueFilter = venue
	s.filtered = filter(s.records, venue)
	change := s.changeLocked(ChangeFilter)
	s.mu.Unlock()

	s.notify(change)
}

// Refresh replaces the working set. The selection follows the record with the
// same ID; when that race is gone the selection is cleared and the analysis
// view falls back to the list.
func (s *Session) Refresh(records []models.RaceRecord) {
	s.mu.Lock()
	change, kept := s.refreshLocked(records)
	s.mu.Unlock()

	metrics.UpdateMeetingRaces(len(records))
	s.logger.LogRefresh(len(records), kept)
	s.notify(change)
}

func (s *Session) refreshLocked(records []models.RaceRecord) (Change, bool) {
	s.records = append([]models.RaceRecord(nil), records...)
	s.filtered = filter(s.records, s.venueFilter)

	kept := false
	if s.selected != nil {
		if race, ok := s.find(s.selected.ID); ok {
			s.selected = &race
			kept = true
		} else {
			s.selected = nil
			if s.view == AnalysisView {
				s.view = ListView
			}
		}
	}
	return s.changeLocked(ChangeRecords), kept
}

// BeginRequest issues the next request number. Numbers increase monotonically.
func (s *Session) BeginRequest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// LatestRequest returns the most recently issued request number
func (s *Session) LatestRequest() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issued
}

// ApplyResponse refreshes the working set with the response to request seq,
// unless a newer request has been issued since. It reports whether the
// response was applied.
func (s *Session) ApplyResponse(seq uint64, records []models.RaceRecord) bool {
	s.mu.Lock()
	if seq != s.issued || seq <= s.applied {
		latest := s.issued
		s.mu.Unlock()
		metrics.RecordStaleResponse()
		s.logger.LogStaleResponse(seq, latest)
		return false
	}
	s.applied = seq
	change, kept := s.refreshLocked(records)
	s.mu.Unlock()

	metrics.UpdateMeetingRaces(len(records))
	s.logger.LogRefresh(len(records), kept)
	s.notify(change)
	return true
}

// Snapshot returns an immutable view of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) find(id string) (models.RaceRecord, bool) {
	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.RaceRecord{}, false
}

// venues lists distinct venues in first-seen order
func venues(records []models.RaceRecord) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range records {
		v := records[i].Venue()
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func filter(records []models.RaceRecord, venue string) []models.RaceRecord {
	if venue == models.AllVenues {
		return append([]models.RaceRecord(nil), records...)
	}
	out := make([]models.RaceRecord, 0, len(records))
	for i := range records {
		if records[i].Venue() == venue {
			out = append(out, records[i])
		}
	}
	return out
}
