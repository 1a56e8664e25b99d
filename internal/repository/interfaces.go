// Package repository provides archive access to meeting results.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/race-insights/internal/models"
)

// RaceRecordRepository defines the interface for archived race records
type RaceRecordRepository interface {
	// GetByDate returns the meeting of a date in race order, or ErrNotFound
	GetByDate(ctx context.Context, date time.Time) ([]models.RaceRecord, error)
	// GetByID returns one archived race
	GetByID(ctx context.Context, date time.Time, id string) (*models.RaceRecord, error)
	// SaveMeeting replaces the archived meeting of a date
	SaveMeeting(ctx context.Context, date time.Time, records []models.RaceRecord) error
	// ListDates returns archived meeting dates, most recent first
	ListDates(ctx context.Context, limit int) ([]time.Time, error)
}
