package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors, matched with errors.Is
var (
	ErrSchema       = errors.New("malformed race record")
	ErrInvalidInput = errors.New("invalid input")
	ErrPrecondition = errors.New("precondition failed")
	ErrFetch        = errors.New("fetch failed")
	ErrRaceNotFound = errors.New("race not found")
	ErrNotFound     = errors.New("record not found")
)

// SchemaError reports a record rejected at ingestion
type SchemaError struct {
	RecordID string
	Problems []string
}

func (e *SchemaError) Error() string {
	id := e.RecordID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("schema error in record %s: %s", id, strings.Join(e.Problems, "; "))
}

// Is matches ErrSchema
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// InvalidInputError reports an analysis requested for a race with no outcome
type InvalidInputError struct {
	RaceID string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for race %s: %s", e.RaceID, e.Reason)
}

// Is matches ErrInvalidInput
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PreconditionError reports a rejected state transition
type PreconditionError struct {
	Operation string
	Reason    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Operation, e.Reason)
}

// Is matches ErrPrecondition
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// FetchError wraps a failure from a fetch collaborator. The cause is kept as-is.
type FetchError struct {
	Source string
	Date   time.Time
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s for %s failed: %v", e.Source, e.Date.Format("2006-01-02"), e.Err)
}

// Unwrap returns the collaborator's error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches ErrFetch
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NewSchemaError creates a new schema error
func NewSchemaError(recordID string, problems []string) *SchemaError {
	return &SchemaError{RecordID: recordID, Problems: problems}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(raceID, reason string) *InvalidInputError {
	return &InvalidInputError{RaceID: raceID, Reason: reason}
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(operation, reason string) *PreconditionError {
	return &PreconditionError{Operation: operation, Reason: reason}
}

// NewFetchError creates a new fetch error
func NewFetchError(source string, date time.Time, err error) *FetchError {
	return &FetchError{Source: source, Date: date, Err: err}
}
