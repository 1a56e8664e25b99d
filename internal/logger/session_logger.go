package logger

import (
	"github.com/sirupsen/logrus"
)

// SessionLogger logs selection and view state transitions.
type SessionLogger struct {
	*logrus.Entry
}

// NewSessionLogger creates a new session logger.
func NewSessionLogger(baseLogger *logrus.Logger) *SessionLogger {
	return &SessionLogger{
		Entry: baseLogger.WithField("component", "session"),
	}
}

// LogViewChange logs an accepted view transition.
func (sl *SessionLogger) LogViewChange(from, to string) {
	sl.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Debug("View changed")
}

// LogRejectedTransition logs a refused view transition.
func (sl *SessionLogger) LogRejectedTransition(target, reason string) {
	sl.WithFields(logrus.Fields{
		"target": target,
		"reason": reason,
	}).Info("View transition rejected")
}

// LogRefresh logs a replaced working set.
func (sl *SessionLogger) LogRefresh(records int, selectionKept bool) {
	sl.WithFields(logrus.Fields{
		"records":        records,
		"selection_kept": selectionKept,
	}).Info("Working set refreshed")
}

// LogStaleResponse logs a discarded out-of-order response.
func (sl *SessionLogger) LogStaleResponse(sequence, latest uint64) {
	sl.WithFields(logrus.Fields{
		"sequence": sequence,
		"latest":   latest,
	}).Warn("Discarding stale response")
}
