package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripwatch/internal/types"
)

var reportDate = time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

// hiddenOverlays counts how many of the three overlay flags carry the hidden
// class in the rendered document.
func hiddenOverlays(html string) int {
	count := 0
	for _, id := range []string{"overlay-red", "overlay-yellow", "overlay-calm"} {
		start := strings.Index(html, `id="`+id+`"`)
		if start < 0 {
			continue
		}
		end := strings.Index(html[start:], ">")
		if strings.Contains(html[start:start+end], "hidden") {
			count++
		}
	}
	return count
}

func TestRenderRevealsMatchingOverlayOnly(t *testing.T) {
	m, err := NewMutator()
	require.NoError(t, err)

	tests := []struct {
		level   types.AlertLevel
		visible string
	}{
		{types.AlertRed, "overlay-red"},
		{types.AlertYellow, "overlay-yellow"},
		{types.AlertCalm, "overlay-calm"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			html, err := m.Render(types.AlertStatusFor(tt.level), reportDate)
			require.NoError(t, err)

			assert.Equal(t, 2, hiddenOverlays(html), "exactly two overlays must stay hidden")

			start := strings.Index(html, `id="`+tt.visible+`"`)
			require.GreaterOrEqual(t, start, 0)
			end := strings.Index(html[start:], ">")
			assert.NotContains(t, html[start:start+end], "hidden",
				"the matching overlay must be revealed")
		})
	}
}

func TestRenderSubstitutesDates(t *testing.T) {
	m, err := NewMutator()
	require.NoError(t, err)

	html, err := m.Render(types.AlertStatusFor(types.AlertCalm), reportDate)
	require.NoError(t, err)

	assert.Contains(t, html, "Monday, March 2, 2026")
	assert.Contains(t, html, "lunes, 2 de marzo de 2026")
}

// TestRenderIdempotent verifies rendering twice with the same inputs yields
// byte-identical output — no accumulation of hidden markers.
func TestRenderIdempotent(t *testing.T) {
	m, err := NewMutator()
	require.NoError(t, err)

	status := types.AlertStatusFor(types.AlertRed)
	first, err := m.Render(status, reportDate)
	require.NoError(t, err)
	second, err := m.Render(status, reportDate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteFile(t *testing.T) {
	m, err := NewMutator()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, m.WriteFile(path, types.AlertStatusFor(types.AlertYellow), reportDate))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="report"`)
	assert.Contains(t, string(data), "forecast-cropped.png",
		"template must reference the cropped chart next to it")
}

func TestNewMutatorFromStringRejectsBadTemplate(t *testing.T) {
	_, err := NewMutatorFromString("{{.Unclosed")
	require.Error(t, err)
}

func TestSpanishDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "jueves, 1 de enero de 2026"},
		{time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC), "domingo, 30 de agosto de 2026"},
		{time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), "viernes, 25 de diciembre de 2026"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, spanishDate(tt.date))
	}
}
