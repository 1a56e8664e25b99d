package logger

import (
	"github.com/sirupsen/logrus"
)

// StreamLogger logs websocket client activity.
type StreamLogger struct {
	*logrus.Entry
}

// NewStreamLogger creates a new stream logger.
func NewStreamLogger(baseLogger *logrus.Logger) *StreamLogger {
	return &StreamLogger{
		Entry: baseLogger.WithField("component", "stream"),
	}
}

// LogClientConnected logs a newly registered client.
func (sl *StreamLogger) LogClientConnected(clientID string, clients int) {
	sl.WithFields(logrus.Fields{
		"client_id": clientID,
		"clients":   clients,
	}).Info("Client connected")
}

// LogClientDisconnected logs a removed client.
func (sl *StreamLogger) LogClientDisconnected(clientID string, clients int) {
	sl.WithFields(logrus.Fields{
		"client_id": clientID,
		"clients":   clients,
	}).Info("Client disconnected")
}

// LogCommandRejected logs a client command the session refused.
func (sl *StreamLogger) LogCommandRejected(clientID, command string, err error) {
	sl.WithFields(logrus.Fields{
		"client_id": clientID,
		"command":   command,
	}).WithError(err).Warn("Client command rejected")
}
