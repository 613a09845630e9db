package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogAdapter_NilFallsBackToDefault(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	require.NotNil(t, adapter)
	assert.Same(t, slog.Default(), adapter.Logger())
}

func TestSlogAdapter_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(Logger)
		level string
	}{
		{"debug", func(l Logger) { l.Debug("token cached", "path", "/tmp/google.token") }, "DEBUG"},
		{"info", func(l Logger) { l.Info("token cached", "path", "/tmp/google.token") }, "INFO"},
		{"warn", func(l Logger) { l.Warn("token cached", "path", "/tmp/google.token") }, "WARN"},
		{"error", func(l Logger) { l.Error("token cached", "path", "/tmp/google.token") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			var l Logger = NewSlogAdapter(logger)
			tt.log(l)

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, "token cached", record["msg"])
			assert.Equal(t, "/tmp/google.token", record["path"])
		})
	}
}

func TestDiscardLogger(t *testing.T) {
	l := DiscardLogger()
	require.NotNil(t, l.Logger())
	assert.NotPanics(t, func() { l.Error("dropped", "key", "value") })
}
