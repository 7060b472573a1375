package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSyncer_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSyncer("info", "json", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("session created", zap.String("session_id", "abc"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug must be filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "session created", entry["message"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithSyncer_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSyncer("debug", "console", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("visible")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithSyncer_Invalid(t *testing.T) {
	_, err := NewWithSyncer("loud", "json", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)

	_, err = NewWithSyncer("info", "xml", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
