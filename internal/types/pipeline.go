package types

import "time"

// ColorDetectionResult captures the outcome of scanning a forecast chart for
// red and yellow hazard pixels. Percentages are rounded to two decimal places
// and always lie in [0,100]. Immutable once produced.
type ColorDetectionResult struct {
	HasRed           bool    `json:"has_red"`
	HasYellow        bool    `json:"has_yellow"`
	RedPercentage    float64 `json:"red_percentage"`
	YellowPercentage float64 `json:"yellow_percentage"`
	TotalPixels      int     `json:"total_pixels"`
}

// OutputFormat is the encoding of the final report image.
type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
)

// Ext returns the file extension (with leading dot) for the format.
func (f OutputFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// Valid reports whether the format is one of the two supported encodings.
func (f OutputFormat) Valid() bool {
	return f == FormatPNG || f == FormatJPEG
}

// RenderSpec is the configuration value object for a screenshot capture.
// DeviceScaleFactor supersamples the capture relative to the logical viewport
// so that detail survives the later upscale.
type RenderSpec struct {
	ViewportWidth     int          `json:"viewport_width"`
	ViewportHeight    int          `json:"viewport_height"`
	DeviceScaleFactor float64      `json:"device_scale_factor"`
	TargetWidth       int          `json:"target_width"`
	Format            OutputFormat `json:"format"`
}

// ForecastResult is the terminal artifact of a pipeline run. It is created
// once per run, read-only afterward, and is the sole object handed to the
// HTTP and notification collaborators.
type ForecastResult struct {
	ImageProcessed  bool                 `json:"image_processed"`
	ImagePath       string               `json:"image_path"`
	ColorDetection  ColorDetectionResult `json:"color_detection"`
	AlertStatus     AlertStatus          `json:"alert_status"`
	OutputImagePath string               `json:"output_image_path"`
	GeneratedAt     time.Time            `json:"generated_at"`
}
