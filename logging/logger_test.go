package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppLoggerEmitsKeyValueArgsAsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	l.Info("router.decision", "target", "scheduler", "confidence", 0.9)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "router.decision", entry["msg"], "the message must not be format-expanded")
	assert.Equal(t, "scheduler", entry["target"])
	assert.InDelta(t, 0.9, entry["confidence"], 1e-9)
}

func TestAppLoggerContextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf}).
		WithComponent("server").
		WithRequest("u1", "t1")

	l.Info("suppressed")
	assert.Zero(t, buf.Len())

	l.Warn("upload.rejected", "filename", "x.exe")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "t1", entry["thread_id"])
	assert.Equal(t, "x.exe", entry["filename"])
}

func TestAppLoggerErrorWithStackKeepsArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelError, Format: "json", Output: &buf})

	l.ErrorWithStack(assert.AnError, "run.failed", "run_id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run.failed", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.NotEmpty(t, entry["stack_trace"])
}

func TestZerologAdapterKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(zerolog.New(&buf))

	l.Info("scheduler.done", "rounds", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler.done", entry["message"])
	assert.InDelta(t, 2, entry["rounds"], 1e-9)
}
