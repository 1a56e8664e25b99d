package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/models"
)

// DataValidator checks race records against the record schema
type DataValidator struct {
	validate *validator.Validate
	logger   *logger.IngestionLogger
}

// NewDataValidator creates a new data validator
func NewDataValidator(log *logrus.Logger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   logger.NewIngestionLogger(logger.OrNop(log)),
	}
}

// ValidateRecord returns a *models.SchemaError listing every problem of the
// record, or nil when it is well formed
func (v *DataValidator) ValidateRecord(race *models.RaceRecord) error {
	if race == nil {
		return models.NewSchemaError("", []string{"record is nil"})
	}

	var problems []string
	problems = append(problems, v.tagProblems(race)...)
	problems = append(problems, structuralProblems(race)...)

	if len(problems) > 0 {
		return models.NewSchemaError(race.ID, problems)
	}
	return nil
}

// ValidateMeeting splits a meeting into well formed records and schema errors.
// Rejected records are logged and excluded; the rest keep their order.
func (v *DataValidator) ValidateMeeting(records []models.RaceRecord) ([]models.RaceRecord, []*models.SchemaError) {
	valid := make([]models.RaceRecord, 0, len(records))
	var rejected []*models.SchemaError

	for i := range records {
		err := v.ValidateRecord(&records[i])
		if err == nil {
			valid = append(valid, records[i])
			continue
		}
		var schemaErr *models.SchemaError
		if errors.As(err, &schemaErr) {
			v.logger.LogRecordRejected(schemaErr.RecordID, schemaErr.Problems)
			rejected = append(rejected, schemaErr)
		}
	}
	return valid, rejected
}

func (v *DataValidator) tagProblems(race *models.RaceRecord) []string {
	err := v.validate.Struct(race)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, describeFieldError(fe))
	}
	return problems
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "datetime":
		return fmt.Sprintf("%s must be a HH:MM time, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// structuralProblems checks the invariants tags cannot express: finishers
// numbered 1..n in order, non-finishers trailing, unique horses, runner count
// and non-negative money
func structuralProblems(race *models.RaceRecord) []string {
	var problems []string

	if race.Purse != nil && race.Purse.IsNegative() {
		problems = append(problems, "purse cannot be negative")
	}

	if !race.HasResults() {
		return problems
	}

	if race.TotalRunners != len(race.Results) {
		problems = append(problems, fmt.Sprintf("totalRunners is %d but %d results are listed", race.TotalRunners, len(race.Results)))
	}

	seen := make(map[string]bool, len(race.Results))
	expected := 1
	nonFinisherSeen := false
	for i, h := range race.Results {
		if h.HorseID != "" {
			if seen[h.HorseID] {
				problems = append(problems, fmt.Sprintf("results[%d]: duplicate horse %s", i, h.HorseID))
			}
			seen[h.HorseID] = true
		}

		if h.PrizeMoney != nil && h.PrizeMoney.IsNegative() {
			problems = append(problems, fmt.Sprintf("results[%d]: prize money cannot be negative", i))
		}

		switch {
		case h.FinalPosition < models.NonFinisherPosition:
			// reported by the gte tag
		case h.FinalPosition == models.NonFinisherPosition:
			nonFinisherSeen = true
		case nonFinisherSeen:
			problems = append(problems, fmt.Sprintf("results[%d]: finisher %s listed after a non-finisher", i, h.Name))
		case h.FinalPosition != expected:
			problems = append(problems, fmt.Sprintf("results[%d]: expected position %d, got %d", i, expected, h.FinalPosition))
			expected = h.FinalPosition + 1
		default:
			expected++
		}
	}

	return problems
}
