package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewLoggerCarriesServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "ripwatch", "prod")
	logger.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ripwatch", record["service"])
	assert.Equal(t, "prod", record["env"])
	assert.Equal(t, "hello", record["msg"])
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "error", "ripwatch", "local")
	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Error("surfaced")
	assert.Contains(t, buf.String(), "surfaced")
}

func TestSetAlertLevelIsOneHot(t *testing.T) {
	m := NewMetricsForTesting()
	m.SetAlertLevel("red")
	m.SetAlertLevel("calm")

	// The gauge for the current level is 1, all others 0; re-setting moves
	// the hot slot rather than accumulating.
	assert.InDelta(t, 0, testutil.ToFloat64(m.AlertLevel.WithLabelValues("red")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertLevel.WithLabelValues("calm")), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(m.AlertLevel.WithLabelValues("yellow")), 0.001)
}
