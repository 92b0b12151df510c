// Package report implements the report template mutator. It takes the static
// branded HTML template, reveals exactly the overlay flag matching the
// current alert level, and substitutes the report date, producing the
// document the render engine screenshots.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"time"

	"ripwatch/internal/types"
)

//go:embed templates/report.html
var templateFS embed.FS

// templateData is the struct passed into the report template. Exactly one of
// the Show booleans is true per render, which keeps the three overlay flags
// mutually exclusive by construction.
type templateData struct {
	ShowRed     bool
	ShowYellow  bool
	ShowCalm    bool
	Status      types.AlertStatus
	DateEnglish string
	DateSpanish string
}

// Mutator renders the report template for a given alert status and date.
// Rendering is pure: the same status and date always produce byte-identical
// output, so re-running it never accumulates state in the document.
type Mutator struct {
	tmpl *template.Template
}

// NewMutator creates a Mutator over the embedded report template.
func NewMutator() (*Mutator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeTemplateRenderFailed, "failed to parse embedded report template", err)
	}
	return &Mutator{tmpl: tmpl}, nil
}

// NewMutatorFromString creates a Mutator over a caller-supplied template
// source. Used by tests and by deployments that override the branding.
func NewMutatorFromString(src string) (*Mutator, error) {
	tmpl, err := template.New("report").Parse(src)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeTemplateRenderFailed, "failed to parse report template", err)
	}
	return &Mutator{tmpl: tmpl}, nil
}

// Render produces the report HTML for the given status and date. All three
// overlay flags start hidden; only the one matching status.Level is revealed.
func (m *Mutator) Render(status types.AlertStatus, date time.Time) (string, error) {
	data := templateData{
		ShowRed:     status.Level == types.AlertRed,
		ShowYellow:  status.Level == types.AlertYellow,
		ShowCalm:    status.Level == types.AlertCalm,
		Status:      status,
		DateEnglish: date.Format("Monday, January 2, 2006"),
		DateSpanish: spanishDate(date),
	}

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return "", types.NewAppError(
			types.ErrCodeTemplateRenderFailed, "failed to render report template", err)
	}
	return buf.String(), nil
}

// WriteFile renders the report and writes it to path. The render engine
// navigates to this file, so it must live next to the cropped chart image
// the template references.
func (m *Mutator) WriteFile(path string, status types.AlertStatus, date time.Time) error {
	html, err := m.Render(status, date)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return types.NewAppError(
			types.ErrCodeTemplateRenderFailed, "failed to write report template", err)
	}
	return nil
}

// Spanish calendar names. The standard library formats dates in English only.
var (
	spanishDays = [...]string{
		"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	}
	spanishMonths = [...]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// spanishDate formats a date as e.g. "lunes, 2 de marzo de 2026".
func spanishDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishDays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
