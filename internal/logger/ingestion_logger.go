package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for results fetches and validation.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogFetchStarted logs the start of a meeting fetch.
func (il *IngestionLogger) LogFetchStarted(source string, date time.Time, sequence uint64) {
	il.WithFields(logrus.Fields{
		"source":   source,
		"date":     date.Format("2006-01-02"),
		"sequence": sequence,
	}).Debug("Fetching meeting results")
}

// LogFetchFailed logs a failed fetch.
func (il *IngestionLogger) LogFetchFailed(source string, date time.Time, sequence uint64, err error) {
	il.WithFields(logrus.Fields{
		"source":   source,
		"date":     date.Format("2006-01-02"),
		"sequence": sequence,
	}).WithError(err).Error("Failed to fetch meeting results")
}

// LogRecordRejected logs a record excluded by schema validation.
func (il *IngestionLogger) LogRecordRejected(recordID string, problems []string) {
	il.WithFields(logrus.Fields{
		"race_id":  recordID,
		"problems": problems,
	}).Warn("Race record rejected")
}

// LogLoadCompleted logs the outcome of a meeting load.
func (il *IngestionLogger) LogLoadCompleted(source string, sequence uint64, accepted, rejected int, applied bool, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"source":      source,
		"sequence":    sequence,
		"accepted":    accepted,
		"rejected":    rejected,
		"applied":     applied,
		"duration_ms": duration.Milliseconds(),
	}).Info("Meeting load completed")
}
