package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/yourusername/race-insights/internal/database"
	"github.com/yourusername/race-insights/internal/models"
)

const (
	errScanRace   = "failed to scan race: %w"
	errScanResult = "failed to scan horse result: %w"
)

// PostgresRaceRecordRepository implements RaceRecordRepository for PostgreSQL
type PostgresRaceRecordRepository struct {
	db *database.DB
}

// NewPostgresRaceRecordRepository creates a new race record repository
func NewPostgresRaceRecordRepository(db *database.DB) RaceRecordRepository {
	return &PostgresRaceRecordRepository{db: db}
}

// raceRow is one race_records row
type raceRow struct {
	ID           string
	RaceName     string
	Hippodrome   string
	Time         string
	Distance     int
	RaceType     string
	TotalRunners int
	Purse        pgtype.Numeric
}

// resultRow is one horse_results row
type resultRow struct {
	RaceID        string
	HorseID       string
	Name          string
	Jockey        string
	Trainer       string
	FinalPosition int
	StartingPrice float64
	PrizeMoney    pgtype.Numeric
	FinishingTime *string
	Margin        *string
}

// GetByDate retrieves the archived meeting of a date
func (r *PostgresRaceRecordRepository) GetByDate(ctx context.Context, date time.Time) ([]models.RaceRecord, error) {
	day := dayOf(date)

	races, err := r.queryRaces(ctx, `
		SELECT id, race_name, hippodrome, start_time, distance, race_type, total_runners, purse
		FROM race_records
		WHERE meeting_date = $1
		ORDER BY start_time, id
	`, day)
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, models.ErrNotFound
	}

	results, err := r.queryResults(ctx, `
		SELECT race_id, horse_id, name, jockey, trainer, final_position, starting_price,
		       prize_money, finishing_time, margin
		FROM horse_results
		WHERE meeting_date = $1
		ORDER BY race_id, ordinal
	`, day)
	if err != nil {
		return nil, err
	}

	return assemble(races, results), nil
}

// GetByID retrieves one archived race
func (r *PostgresRaceRecordRepository) GetByID(ctx context.Context, date time.Time, id string) (*models.RaceRecord, error) {
	day := dayOf(date)

	races, err := r.queryRaces(ctx, `
		SELECT id, race_name, hippodrome, start_time, distance, race_type, total_runners, purse
		FROM race_records
		WHERE meeting_date = $1 AND id = $2
	`, day, id)
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, models.ErrNotFound
	}

	results, err := r.queryResults(ctx, `
		SELECT race_id, horse_id, name, jockey, trainer, final_position, starting_price,
		       prize_money, finishing_time, margin
		FROM horse_results
		WHERE meeting_date = $1 AND race_id = $2
		ORDER BY ordinal
	`, day, id)
	if err != nil {
		return nil, err
	}

	record := assemble(races, results)[0]
	return &record, nil
}

// SaveMeeting replaces the archived meeting of a date in one transaction
func (r *PostgresRaceRecordRepository) SaveMeeting(ctx context.Context, date time.Time, records []models.RaceRecord) error {
	day := dayOf(date)

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM race_records WHERE meeting_date = $1`, day); err != nil {
			return fmt.Errorf("failed to clear meeting: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range records {
			rec := &records[i]
			batch.Queue(`
				INSERT INTO race_records (meeting_date, id, race_name, hippodrome, start_time, distance, race_type, total_runners, purse)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, day, rec.ID, rec.RaceName, rec.Hippodrome, rec.Time, rec.Distance, rec.RaceType, rec.TotalRunners, toNumeric(rec.Purse))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert races: %w", err)
		}

		rows := resultCopyRows(day, records)
		if len(rows) == 0 {
			return nil
		}
		copyCount, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"horse_results"},
			resultColumns,
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to batch insert horse results: %w", err)
		}
		if copyCount != int64(len(rows)) {
			return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(rows))
		}
		return nil
	})
}

// ListDates returns the archived meeting dates, most recent first
func (r *PostgresRaceRecordRepository) ListDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT DISTINCT meeting_date FROM race_records ORDER BY meeting_date DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan meeting date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *PostgresRaceRecordRepository) queryRaces(ctx context.Context, query string, args ...interface{}) ([]raceRow, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var races []raceRow
	for rows.Next() {
		var row raceRow
		if err := rows.Scan(&row.ID, &row.RaceName, &row.Hippodrome, &row.Time, &row.Distance,
			&row.RaceType, &row.TotalRunners, &row.Purse); err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errScanRace, err)
	}
	return races, nil
}

func (r *PostgresRaceRecordRepository) queryResults(ctx context.Context, query string, args ...interface{}) ([]resultRow, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query horse results: %w", err)
	}
	defer rows.Close()

	var results []resultRow
	for rows.Next() {
		var row resultRow
		if err := rows.Scan(&row.RaceID, &row.HorseID, &row.Name, &row.Jockey, &row.Trainer,
			&row.FinalPosition, &row.StartingPrice, &row.PrizeMoney, &row.FinishingTime, &row.Margin); err != nil {
			return nil, fmt.Errorf(errScanResult, err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errScanResult, err)
	}
	return results, nil
}

var resultColumns = []string{
	"meeting_date", "race_id", "ordinal", "horse_id", "name", "jockey", "trainer",
	"final_position", "starting_price", "prize_money", "finishing_time", "margin",
}

// resultCopyRows flattens the results of a meeting in record order
func resultCopyRows(day time.Time, records []models.RaceRecord) [][]interface{} {
	var rows [][]interface{}
	for i := range records {
		for j, h := range records[i].Results {
			rows = append(rows, []interface{}{
				day, records[i].ID, j, h.HorseID, h.Name, h.Jockey, h.Trainer,
				h.FinalPosition, h.StartingPrice, toNumeric(h.PrizeMoney),
				h.Performance.FinishingTime, h.Performance.Margin,
			})
		}
	}
	return rows
}

// assemble attaches result rows to their races, keeping both orders
func assemble(races []raceRow, results []resultRow) []models.RaceRecord {
	byRace := make(map[string][]models.HorseResult, len(races))
	for _, row := range results {
		byRace[row.RaceID] = append(byRace[row.RaceID], models.HorseResult{
			HorseID:       row.HorseID,
			Name:          row.Name,
			Jockey:        row.Jockey,
			Trainer:       row.Trainer,
			FinalPosition: row.FinalPosition,
			StartingPrice: row.StartingPrice,
			PrizeMoney:    decimalPtr(row.PrizeMoney),
			Performance: models.Performance{
				FinishingTime: row.FinishingTime,
				Margin:        row.Margin,
			},
		})
	}

	records := make([]models.RaceRecord, 0, len(races))
	for _, row := range races {
		records = append(records, models.RaceRecord{
			ID:           row.ID,
			RaceName:     row.RaceName,
			Hippodrome:   row.Hippodrome,
			Time:         row.Time,
			Distance:     row.Distance,
			RaceType:     row.RaceType,
			TotalRunners: row.TotalRunners,
			Purse:        decimalPtr(row.Purse),
			Results:      byRace[row.ID],
		})
	}
	return records
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// toNumeric converts an optional amount to a NUMERIC parameter, NULL when absent
func toNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func decimalPtr(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil
	}
	v := decimal.NewFromBigInt(n.Int, n.Exp)
	return &v
}
