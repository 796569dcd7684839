package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"":        slog.LevelDebug,
		"verbose": slog.LevelDebug,
	}
	for in, want := range cases {
		assert.Equal(t, want, levelFromString(in), in)
	}
}

func TestNewToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTo(&buf, "info", "json")
	logger.Debug("hidden")
	logger.With("component", "monitor").Info("cycle finished", "entities", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cycle finished", line["msg"])
	assert.Equal(t, "monitor", line["component"])
	assert.EqualValues(t, 2, line["entities"])
}

func TestNewToText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewTo(&buf, "debug", "").Debug("seeded", "records", 3)

	assert.Contains(t, buf.String(), "msg=seeded records=3")
}
