package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ripwatch/internal/types"
)

// statusPayload is the response body for GET /v1/status.
type statusPayload struct {
	AlertLevel       string    `json:"alert_level"`
	Label            string    `json:"label"`
	LabelEnglish     string    `json:"label_english"`
	LabelSpanish     string    `json:"label_spanish"`
	RedPercentage    float64   `json:"red_percentage"`
	YellowPercentage float64   `json:"yellow_percentage"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// generatePayload is the response body for POST /v1/report/generate.
type generatePayload struct {
	AlertLevel  string    `json:"alert_level"`
	OutputPath  string    `json:"output_path"`
	GeneratedAt time.Time `json:"generated_at"`
}

// healthPayload is the response body for GET /health.
type healthPayload struct {
	Status      string     `json:"status"`
	ReportReady bool       `json:"report_ready"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

// HandleHealth reports process liveness. The report itself being absent is
// not unhealthy; a cold service simply has not generated yet.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthPayload{Status: "healthy"}
	if last := s.Coordinator.Last(); last != nil {
		resp.ReportReady = true
		resp.GeneratedAt = &last.GeneratedAt
	}
	JSON(w, r, http.StatusOK, resp)
}

// HandleStatus returns the current alert classification, generating a report
// first if none exists. The lang query parameter selects which label the
// "label" field carries; both languages are always included alongside it.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	if lang != "en" && lang != "es" {
		Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidLang,
			"lang must be one of: en, es",
			nil,
			map[string]any{"lang": lang},
		))
		return
	}

	result, err := s.Coordinator.EnsureReport(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: statusPayload{
		AlertLevel:       string(result.AlertStatus.Level),
		Label:            result.AlertStatus.Translate(lang),
		LabelEnglish:     result.AlertStatus.LabelEnglish,
		LabelSpanish:     result.AlertStatus.LabelSpanish,
		RedPercentage:    result.ColorDetection.RedPercentage,
		YellowPercentage: result.ColorDetection.YellowPercentage,
		GeneratedAt:      result.GeneratedAt,
	}})
}

// HandleReportImage serves the latest generated report image from disk.
func (s *Server) HandleReportImage(w http.ResponseWriter, r *http.Request) {
	path := s.Coordinator.OutputPath()
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundReport, "no report has been generated yet", err))
		return
	}

	if strings.EqualFold(filepath.Ext(path), ".jpg") {
		w.Header().Set("Content-Type", "image/jpeg")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	http.ServeFile(w, r, path)
}

// HandleGenerate forces a generation pass. Concurrent requests join the same
// in-flight run rather than starting their own.
func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := s.Coordinator.Generate(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: generatePayload{
		AlertLevel:  string(result.AlertStatus.Level),
		OutputPath:  result.OutputImagePath,
		GeneratedAt: result.GeneratedAt,
	}})
}
