package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"Warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_LevelFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	var buf bytes.Buffer

	log, err := New(Options{Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_ExplicitLevelWins(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	var buf bytes.Buffer

	log, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)

	log.Debug("step")
	assert.Contains(t, buf.String(), "step")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_JSONNonFinite(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", JSON: true, Output: &buf})
	require.NoError(t, err)

	log.Warn("parameter refused", "param", "m", "value", math.NaN(), "other", 0.5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "NaN", rec["value"])
	assert.Equal(t, 0.5, rec["other"])
	assert.Equal(t, "m", rec["param"])
}

func TestWrapError(t *testing.T) {
	base := errors.New("boom")

	assert.Nil(t, WrapError(nil, "ignored"))

	err := WrapError(base, "load %s", "sim.yaml")
	assert.EqualError(t, err, "load sim.yaml: boom")
	assert.ErrorIs(t, err, base)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
