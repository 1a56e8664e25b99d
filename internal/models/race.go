package models

import (
	"github.com/shopspring/decimal"
)

// Race types seen on French meetings
const (
	RaceTypeFlat    = "flat"
	RaceTypeJump    = "jump"
	RaceTypeTrot    = "trot"
	RaceTypeMounted = "mounted_trot"
)

// AllVenues is the venue filter value that keeps every record
const AllVenues = "all"

// UnknownVenue labels records whose hippodrome is blank
const UnknownVenue = "Unknown"

// RaceRecord represents one race at a meeting together with its outcome
type RaceRecord struct {
	ID           string           `db:"id" json:"id" validate:"required"`
	RaceName     string           `db:"race_name" json:"raceName" validate:"required"`
	Hippodrome   string           `db:"hippodrome" json:"hippodrome" validate:"required"`
	Time         string           `db:"start_time" json:"time" validate:"required,datetime=15:04"`
	Distance     int              `db:"distance" json:"distance" validate:"gt=0"`
	RaceType     string           `db:"race_type" json:"raceType" validate:"required"`
	TotalRunners int              `db:"total_runners" json:"totalRunners" validate:"gte=0"`
	Purse        *decimal.Decimal `db:"purse" json:"purse,omitempty"`
	Results      []HorseResult    `db:"-" json:"results" validate:"dive"`
	Statistics   *RaceStatistics  `db:"-" json:"statistics,omitempty" validate:"-"`
}

// HasResults reports whether the race has been run and results declared
func (r *RaceRecord) HasResults() bool {
	return len(r.Results) > 0
}

// Finishers returns the results that hold a real finishing position, in record order
func (r *RaceRecord) Finishers() []HorseResult {
	finishers := make([]HorseResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Finished() {
			finishers = append(finishers, res)
		}
	}
	return finishers
}

// Venue returns the hippodrome or UnknownVenue when blank
func (r *RaceRecord) Venue() string {
	if r.Hippodrome == "" {
		return UnknownVenue
	}
	return r.Hippodrome
}

// WithStatistics returns a copy of the record carrying the given statistics.
// The results slice is shared; records are never mutated after creation.
func (r RaceRecord) WithStatistics(stats RaceStatistics) RaceRecord {
	r.Statistics = &stats
	return r
}
