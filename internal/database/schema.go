package database

import (
	"context"
	"fmt"

	"github.com/yourusername/race-insights/internal/config"
)

// schema creates the archive tables. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS race_records (
		meeting_date  DATE        NOT NULL,
		id            TEXT        NOT NULL,
		race_name     TEXT        NOT NULL,
		hippodrome    TEXT        NOT NULL,
		start_time    TEXT        NOT NULL,
		distance      INTEGER     NOT NULL CHECK (distance > 0),
		race_type     TEXT        NOT NULL,
		total_runners INTEGER     NOT NULL CHECK (total_runners >= 0),
		purse         NUMERIC(14, 2),
		fetched_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (meeting_date, id)
	)`,
	`CREATE TABLE IF NOT EXISTS horse_results (
		meeting_date   DATE    NOT NULL,
		race_id        TEXT    NOT NULL,
		ordinal        INTEGER NOT NULL,
		horse_id       TEXT    NOT NULL,
		name           TEXT    NOT NULL,
		jockey         TEXT    NOT NULL DEFAULT '',
		trainer        TEXT    NOT NULL DEFAULT '',
		final_position INTEGER NOT NULL CHECK (final_position >= 0),
		starting_price DOUBLE PRECISION NOT NULL CHECK (starting_price > 0),
		prize_money    NUMERIC(14, 2),
		finishing_time TEXT,
		margin         TEXT,
		PRIMARY KEY (meeting_date, race_id, ordinal),
		FOREIGN KEY (meeting_date, race_id) REFERENCES race_records (meeting_date, id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_race_records_hippodrome ON race_records (meeting_date, hippodrome)`,
}

// EnsureSchema creates the archive tables when they are missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Initialize connects to the archive and makes sure its schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
