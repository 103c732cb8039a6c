package log

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToFields(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
	}{
		{"empty input", []any{}, nil},
		{"pairs", []any{"host", "epimetheus", "exit_code", 0, "ok", true}, []string{"host", "exit_code", "ok"}},
		{"duration", []any{"elapsed", 3 * time.Second}, []string{"elapsed"}},
		{"bare error", []any{boom}, []string{"error"}},
		{"passthrough field", []any{zap.String("x", "y"), "n", 42}, []string{"x", "n"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			require.Len(t, fields, len(tt.keys))
			for i, f := range fields {
				assert.Equal(t, tt.keys[i], f.Key)
			}
		})
	}
}

func TestLoggerWithValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core)).WithName("remote").WithValues("host", "epimetheus")

	l.Info("command finished", "exit_code", 3)
	l.Error(errors.New("dial tcp: refused"), "command failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "remote", entries[0].LoggerName)
	assert.Equal(t, "epimetheus", entries[0].ContextMap()["host"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["exit_code"])
	assert.Equal(t, "dial tcp: refused", entries[1].ContextMap()["error"])
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	opts := NewOptions()
	opts.Level = "loud"

	_, err := NewLogger(opts)
	assert.Error(t, err)
	assert.Len(t, opts.Validate(), 1)
}

func TestCallerPointsAtCallSite(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core, zap.AddCaller()))

	prev := Std()
	SetStd(l)
	t.Cleanup(func() { SetStd(prev) })

	l.Info("direct")
	Info("package helper")
	Warn("package helper")
	WithName("remote").Info("named")

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "log_test.go", filepath.Base(e.Caller.File), e.Message)
	}
}

func TestNewLoggerCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.OutputPaths = []string{path}

	l, err := NewLogger(opts)
	require.NoError(t, err)
	l.Info("started")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "started", entry["message"])
	assert.Contains(t, entry["caller"], "log/log_test.go:")
}
