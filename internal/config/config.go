// Package config defines the global configuration structure for the RipWatch
// service. Configuration is loaded once at process initialization and is
// immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast).
package config

import (
	"path/filepath"
	"time"

	"ripwatch/internal/types"
)

// Config is the top-level configuration struct for the RipWatch service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"ripwatch"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Source    SourceConfig
	Detection DetectionConfig
	Render    RenderConfig
	Output    OutputConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	AWS       AWSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `envconfig:"HTTP_ADDR" default:":8080"`
	RequestTimeout time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"90s"`
}

// SourceConfig describes where the forecast chart is fetched from and how it
// is pre-processed before color detection.
type SourceConfig struct {
	// ImageURL is the upstream location of the periodically-published
	// forecast chart.
	ImageURL string `envconfig:"FORECAST_IMAGE_URL" validate:"required,url"`

	// FetchTimeout bounds the HTTP GET for the source image.
	FetchTimeout time.Duration `envconfig:"FORECAST_FETCH_TIMEOUT" default:"30s"`

	// CropTop and CropBottom are the pixel margins removed from the raw
	// chart before detection. The chart carries a branding header and a
	// legend footer that would otherwise pollute the pixel counts.
	CropTop    int `envconfig:"CROP_TOP" default:"110" validate:"min=0"`
	CropBottom int `envconfig:"CROP_BOTTOM" default:"90" validate:"min=0"`
}

// DetectionConfig holds the color classification threshold.
type DetectionConfig struct {
	// Threshold is the minimum percentage of matching pixels required to
	// consider a color present, in [0,100].
	Threshold float64 `envconfig:"DETECTION_THRESHOLD" default:"0.5" validate:"min=0,max=100"`
}

// RenderConfig holds the headless capture settings.
type RenderConfig struct {
	ViewportWidth     int           `envconfig:"VIEWPORT_WIDTH" default:"930" validate:"min=1"`
	ViewportHeight    int           `envconfig:"VIEWPORT_HEIGHT" default:"1500" validate:"min=1"`
	DeviceScaleFactor float64       `envconfig:"DEVICE_SCALE_FACTOR" default:"2.0" validate:"min=1"`
	LaunchTimeout     time.Duration `envconfig:"RENDER_LAUNCH_TIMEOUT" default:"30s"`
	SelectorTimeout   time.Duration `envconfig:"RENDER_SELECTOR_TIMEOUT" default:"10s"`
	AssetGraceDelay   time.Duration `envconfig:"RENDER_ASSET_GRACE" default:"2s"`
}

// OutputConfig describes the final report asset.
type OutputConfig struct {
	// DataDir is the directory holding all durable pipeline artifacts:
	// the cropped intermediate, the mutated template, and the final image.
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	TargetWidth int    `envconfig:"TARGET_WIDTH" default:"1500" validate:"min=1"`
	Format      string `envconfig:"OUTPUT_FORMAT" default:"png" validate:"oneof=png jpeg"`
	JPEGQuality int    `envconfig:"JPEG_QUALITY" default:"90" validate:"min=1,max=100"`
}

// EmailConfig holds report delivery settings. Delivery is optional; when
// disabled the pipeline still produces the report asset for the HTTP surface.
type EmailConfig struct {
	Enabled     bool     `envconfig:"EMAIL_ENABLED" default:"false"`
	FromAddress string   `envconfig:"EMAIL_FROM_ADDRESS" default:"alerts@ripwatch.io"`
	FromName    string   `envconfig:"EMAIL_FROM_NAME" default:"RipWatch Alerts"`
	Recipients  []string `envconfig:"EMAIL_RECIPIENTS"`
}

// SchedulerConfig holds the periodic generation trigger settings.
type SchedulerConfig struct {
	Enabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"GENERATE_INTERVAL" default:"1h"`
}

// AWSConfig holds AWS SDK settings used by the SES email provider.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// OutputFormat returns the configured output format as a typed value.
func (c OutputConfig) OutputFormat() types.OutputFormat {
	return types.OutputFormat(c.Format)
}

// CroppedImagePath is the fixed path of the intermediate cropped chart.
func (c OutputConfig) CroppedImagePath() string {
	return filepath.Join(c.DataDir, "forecast-cropped.png")
}

// TemplatePath is the fixed path the mutated report template is written to.
func (c OutputConfig) TemplatePath() string {
	return filepath.Join(c.DataDir, "report.html")
}

// ReportImagePath is the fixed path of the final report image. A later run
// overwrites it atomically.
func (c OutputConfig) ReportImagePath() string {
	return filepath.Join(c.DataDir, "report"+c.OutputFormat().Ext())
}

// RenderSpec assembles the capture value object from the render and output
// sections.
func (c *Config) RenderSpec() types.RenderSpec {
	return types.RenderSpec{
		ViewportWidth:     c.Render.ViewportWidth,
		ViewportHeight:    c.Render.ViewportHeight,
		DeviceScaleFactor: c.Render.DeviceScaleFactor,
		TargetWidth:       c.Output.TargetWidth,
		Format:            c.Output.OutputFormat(),
	}
}
