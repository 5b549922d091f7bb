package lgr

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mdobak/go-xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelInfo)

	logger.Error("upload failed", slog.Any("error", errors.New("disk full")), slog.String("video", "clip.mp4"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "upload failed", entry["msg"])
	assert.Equal(t, "clip.mp4", entry["video"])

	errGroup, ok := entry["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "disk full", errGroup["msg"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelWarn)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "pretty", slog.LevelDebug).With(slog.String("component", "api"))

	logger.Info("video analyzed", slog.Int("frames", 3), slog.Any("error", errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "video analyzed")
	assert.Contains(t, out, `"component": "api"`)
	assert.Contains(t, out, `"frames": 3`)
	assert.Contains(t, out, `"msg": "boom"`)
}

func TestPrettyHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "pretty", slog.LevelDebug).
		With(slog.String("component", "api")).
		WithGroup("request").
		With(slog.String("id", "r1"))

	logger.Info("upload received", slog.Int("size", 42))

	out := buf.String()
	assert.Contains(t, out, "upload received")
	assert.Contains(t, out, `"component": "api"`)
	assert.Contains(t, out, `"request": {`)
	assert.Contains(t, out, `"id": "r1"`)
	assert.Contains(t, out, `"size": 42`)

	_, isPretty := logger.Handler().(*prettyHandler)
	assert.True(t, isPretty)
}

func TestTintHandler(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "tint", slog.LevelInfo).Info("ready", slog.Int("port", 8000))

	assert.Contains(t, buf.String(), "ready")
	assert.Contains(t, buf.String(), "8000")
}

func TestErrorStackTrace(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", slog.LevelInfo).Error("fatal", slog.Any("error", xerrors.New("model missing")))

	var entry struct {
		Error struct {
			Msg   string       `json:"msg"`
			Trace []stackFrame `json:"trace"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model missing", entry.Error.Msg)
	require.NotEmpty(t, entry.Error.Trace)

	var sources []string
	for _, f := range entry.Error.Trace {
		sources = append(sources, filepath.Base(f.Source))
	}
	assert.Contains(t, sources, "lgr_test.go")
}
