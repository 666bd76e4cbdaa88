package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinmclean/pedaldose/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSONFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedaldose.log")

	l, closer, err := New(config.Log{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("pedal accepted", "pedal", "Weak", "accumulated", 45)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "pedal accepted", entry["msg"])
	assert.Equal(t, "Weak", entry["pedal"])
	assert.Equal(t, float64(45), entry["accumulated"])
}

func TestNewBadOutput(t *testing.T) {
	_, _, err := New(config.Log{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
