package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/race-insights/internal/models"
)

// ArchiveSourceName is the name reported by ArchiveSource
const ArchiveSourceName = "archive"

// RaceRecordReader reads archived meetings
type RaceRecordReader interface {
	GetByDate(ctx context.Context, date time.Time) ([]models.RaceRecord, error)
}

// ArchiveSource serves meetings previously stored in the results archive
type ArchiveSource struct {
	reader RaceRecordReader
}

// NewArchiveSource creates an archive-backed source
func NewArchiveSource(reader RaceRecordReader) *ArchiveSource {
	return &ArchiveSource{reader: reader}
}

// FetchResults reads the archived meeting of the given date
func (s *ArchiveSource) FetchResults(ctx context.Context, date time.Time) ([]models.RaceRecord, error) {
	records, err := s.reader.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, "no archived meeting on "+date.Format("2006-01-02"), err)
		}
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return records, nil
}

// Name returns the data source name
func (s *ArchiveSource) Name() string {
	return ArchiveSourceName
}
