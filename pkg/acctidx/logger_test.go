package acctidx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CVDpl/go-acctidx/internal/common"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, common.LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "user", "wumpus", "disc", 7)
	l.Error("also shown", "dangling")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "wumpus", entries[0]["user"])
	assert.Equal(t, float64(7), entries[0]["disc"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.NotContains(t, entries[1], "dangling")
}

func TestDefaultLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, common.LogLevelDebug)
	l := base.WithFields(map[string]interface{}{"component": "ingest"})

	l.Info("loaded", "component", "override")
	base.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "override", entries[0]["component"])
	assert.NotContains(t, entries[1], "component")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]common.LogLevel{
		"debug":   common.LogLevelDebug,
		"":        common.LogLevelInfo,
		"INFO":    common.LogLevelInfo,
		"warning": common.LogLevelWarn,
		" error ": common.LogLevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, common.LogLevelDebug)

	LogError(l, "load failed", errors.New("boom"), "source", "x.csv")
	LogLatency(l, "load", time.Now())

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, "x.csv", entries[0]["source"])
	assert.Equal(t, "load", entries[1]["operation"])
	assert.Equal(t, "DEBUG", entries[1]["level"])
}
