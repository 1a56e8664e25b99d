package repository

import (
	"fmt"

	"github.com/yourusername/race-insights/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	RaceRecord RaceRecordRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		RaceRecord: NewPostgresRaceRecordRepository(db),
	}, nil
}
