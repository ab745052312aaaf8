package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestNewGologLogger(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelControl(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	logger.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestGologLogger_Logging(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)
	logger.SetLevel(LogLevelDebug)

	// These should not panic
	logger.Debug("Debug message")
	logger.Info("Info message")
	logger.Warn("Warning message")
	logger.Error("Error message")

	logger.Debug("Debug: %s", "test")
	logger.Info("Info: %d", 42)
	logger.Warn("Warn: %v", map[string]string{"key": "value"})
	logger.Error("Error: %f", 3.14)
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestPackageLevelLogger(t *testing.T) {
	orig := GetDefaultLogger()
	defer SetDefaultLogger(orig)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelInfo))

	Info("session %s started", "abc")
	assert.Contains(t, buf.String(), "session abc started")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
}
