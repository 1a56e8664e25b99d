package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/race-insights/internal/models"
)

// FileSourceName is the name reported by FileSource
const FileSourceName = "file"

// FileSource reads a meeting from a local JSON file holding an array of race
// records. The date is ignored: the file is the meeting.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchResults decodes the meeting file
func (s *FileSource) FetchResults(ctx context.Context, _ time.Time) ([]models.RaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, "meeting file not found", err)
		}
		return nil, fmt.Errorf("failed to open meeting file: %w", err)
	}
	defer f.Close()

	var records []models.RaceRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "failed to parse meeting file", err)
	}
	return records, nil
}

// Name returns the data source name
func (s *FileSource) Name() string {
	return FileSourceName
}
