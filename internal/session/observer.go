package session

import (
	"sort"

	"github.com/yourusername/race-insights/internal/models"
)

// ChangeKind names the transition that produced a Change
type ChangeKind string

const (
	ChangeView      ChangeKind = "view"
	ChangeSelection ChangeKind = "selection"
	ChangeFilter    ChangeKind = "filter"
	ChangeRecords   ChangeKind = "records"
)

// Snapshot is a copy of the session state at one point in time
type Snapshot struct {
	View           ViewMode            `json:"view"`
	VenueFilter    string              `json:"venueFilter"`
	SelectedRaceID string              `json:"selectedRaceId,omitempty"`
	Selected       *models.RaceRecord  `json:"selected,omitempty"`
	Filtered       []models.RaceRecord `json:"filtered"`
	Hippodromes    []string            `json:"hippodromes"`
	RecordCount    int                 `json:"recordCount"`
	Sequence       uint64              `json:"sequence"`
	Version        uint64              `json:"version"` // increases with every change
}

// Change is delivered to observers after every effective transition
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Snapshot Snapshot   `json:"snapshot"`
}

// Observer receives state changes. It runs on the goroutine that made the
// change and may read the session but must not modify it.
type Observer func(Change)

// Subscribe registers an observer and returns a function removing it
func (s *Session) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// notify delivers a change to every observer in subscription order. Changes
// reach observers in version order; one overtaken by a newer change that was
// already delivered is skipped, so the last Change seen is the current state.
func (s *Session) notify(change Change) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if change.Snapshot.Version <= s.delivered {
		return
	}
	s.delivered = change.Snapshot.Version

	s.mu.RLock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.mu.RUnlock()

	for _, o := range observers {
		o(change)
	}
}

func (s *Session) changeLocked(kind ChangeKind) Change {
	s.version++
	return Change{Kind: kind, Snapshot: s.snapshotLocked()}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		View:        s.view,
		VenueFilter: s.venueFilter,
		Filtered:    append([]models.RaceRecord{}, s.filtered...),
		Hippodromes: venues(s.records),
		RecordCount: len(s.records),
		Sequence:    s.applied,
		Version:     s.version,
	}
	if r, ok := s.selectedLocked(); ok {
		snap.SelectedRaceID = r.ID
		snap.Selected = &r
	}
	return snap
}
