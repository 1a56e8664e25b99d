package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/models"
)

const (
	expectedValidMsg   = "expected record to be valid"
	expectedProblemMsg = "expected a problem containing %q, got %v"
)

func runner(id string, pos int, price float64) models.HorseResult {
	return models.HorseResult{
		HorseID:       id,
		Name:          "Horse " + id,
		Jockey:        "Jockey " + id,
		Trainer:       "Trainer " + id,
		FinalPosition: pos,
		StartingPrice: price,
	}
}

func validRace() models.RaceRecord {
	return models.RaceRecord{
		ID:           "R1C1",
		RaceName:     "Prix de Diane",
		Hippodrome:   "Chantilly",
		Time:         "13:50",
		Distance:     2100,
		RaceType:     models.RaceTypeFlat,
		TotalRunners: 3,
		Results: []models.HorseResult{
			runner("h1", 1, 2.5),
			runner("h2", 2, 4.0),
			runner("h3", models.NonFinisherPosition, 9.0),
		},
	}
}

func hasProblem(err error, fragment string) bool {
	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		return false
	}
	for _, p := range schemaErr.Problems {
		if strings.Contains(p, fragment) {
			return true
		}
	}
	return false
}

func TestValidateRecordValid(t *testing.T) {
	v := NewDataValidator(nil)
	race := validRace()

	assert.NoError(t, v.ValidateRecord(&race), expectedValidMsg)
}

func TestValidateRecordWithoutResults(t *testing.T) {
	v := NewDataValidator(nil)
	race := validRace()
	race.Results = nil
	race.TotalRunners = 0

	assert.NoError(t, v.ValidateRecord(&race), expectedValidMsg)
}

func TestValidateRecordProblems(t *testing.T) {
	v := NewDataValidator(nil)

	tests := []struct {
		name       string
		mutate     func(r *models.RaceRecord)
		shouldHave string
	}{
		{"missing id", func(r *models.RaceRecord) { r.ID = "" }, "ID is required"},
		{"missing venue", func(r *models.RaceRecord) { r.Hippodrome = "" }, "Hippodrome is required"},
		{"bad time", func(r *models.RaceRecord) { r.Time = "1:50pm" }, "HH:MM"},
		{"zero distance", func(r *models.RaceRecord) { r.Distance = 0 }, "Distance must be greater than 0"},
		{"zero price", func(r *models.RaceRecord) { r.Results[1].StartingPrice = 0 }, "StartingPrice must be greater than 0"},
		{"negative position", func(r *models.RaceRecord) { r.Results[1].FinalPosition = -2 }, "FinalPosition must be at least 0"},
		{"runner count", func(r *models.RaceRecord) { r.TotalRunners = 8 }, "totalRunners is 8 but 3 results"},
		{"gap", func(r *models.RaceRecord) { r.Results[1].FinalPosition = 3 }, "expected position 2, got 3"},
		{"duplicate position", func(r *models.RaceRecord) { r.Results[1].FinalPosition = 1 }, "expected position 2, got 1"},
		{"duplicate horse", func(r *models.RaceRecord) { r.Results[2].HorseID = "h1" }, "duplicate horse h1"},
		{"finisher after non-finisher", func(r *models.RaceRecord) {
			r.Results[1], r.Results[2] = r.Results[2], r.Results[1]
		}, "listed after a non-finisher"},
		{"negative prize", func(r *models.RaceRecord) {
			d := decimal.NewFromInt(-5)
			r.Results[0].PrizeMoney = &d
		}, "prize money cannot be negative"},
		{"negative purse", func(r *models.RaceRecord) {
			d := decimal.NewFromInt(-1)
			r.Purse = &d
		}, "purse cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := validRace()
			tt.mutate(&race)

			err := v.ValidateRecord(&race)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrSchema))
			assert.Truef(t, hasProblem(err, tt.shouldHave), expectedProblemMsg, tt.shouldHave, err)
		})
	}
}

func TestValidateMeetingExcludesInvalid(t *testing.T) {
	v := NewDataValidator(nil)
	good1 := validRace()
	bad := validRace()
	bad.ID = "R1C2"
	bad.Distance = -1
	good2 := validRace()
	good2.ID = "R1C3"

	valid, rejected := v.ValidateMeeting([]models.RaceRecord{good1, bad, good2})

	require.Len(t, valid, 2)
	assert.Equal(t, "R1C1", valid[0].ID)
	assert.Equal(t, "R1C3", valid[1].ID)
	require.Len(t, rejected, 1)
	assert.Equal(t, "R1C2", rejected[0].RecordID)
}
