package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected logrus.Level
	}{
		{"debug", "debug", logrus.DebugLevel},
		{"warn", "warn", logrus.WarnLevel},
		{"invalid falls back to info", "loud", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level, "development", &bytes.Buffer{})
			assert.Equal(t, tt.expected, log.GetLevel())
		})
	}
}

func TestNewProductionUsesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("info", "production", buf)

	log.Info("hello")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestOrNop(t *testing.T) {
	log, _ := setupTestLogger()

	assert.Same(t, log, OrNop(log))
	assert.NotNil(t, OrNop(nil))
}

func TestIngestionLoggerFetchFailed(t *testing.T) {
	log, buf := setupTestLogger()
	il := NewIngestionLogger(log)

	il.LogFetchFailed("provider", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), 3, errors.New("timeout"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ingestion", logEntry["component"])
	assert.Equal(t, "2024-06-02", logEntry["date"])
	assert.Equal(t, float64(3), logEntry["sequence"])
	assert.Equal(t, "timeout", logEntry["error"])
}

func TestIngestionLoggerRecordRejected(t *testing.T) {
	log, buf := setupTestLogger()
	il := NewIngestionLogger(log)

	il.LogRecordRejected("R1C2", []string{"distance must be positive"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "R1C2", logEntry["race_id"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestSessionLoggerStaleResponse(t *testing.T) {
	log, buf := setupTestLogger()
	sl := NewSessionLogger(log)

	sl.LogStaleResponse(1, 2)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "session", logEntry["component"])
	assert.Equal(t, float64(1), logEntry["sequence"])
	assert.Equal(t, float64(2), logEntry["latest"])
}

func TestStreamLoggerClientConnected(t *testing.T) {
	log, buf := setupTestLogger()
	sl := NewStreamLogger(log)

	sl.LogClientConnected("c-1", 4)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "stream", logEntry["component"])
	assert.Equal(t, "c-1", logEntry["client_id"])
}
