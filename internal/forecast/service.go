package forecast

import (
	"context"
	"log/slog"
	"os"
	"time"

	"ripwatch/internal/config"
	"ripwatch/internal/detect"
	"ripwatch/internal/imgproc"
	"ripwatch/internal/observability"
	"ripwatch/internal/report"
	"ripwatch/internal/types"
)

// Fetcher downloads the raw forecast chart.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Renderer captures the mutated template and returns the temp capture path.
type Renderer interface {
	Capture(ctx context.Context, templatePath string, spec types.RenderSpec) (string, error)
}

// Resampler converts a raw capture into the final report asset at outPath.
type Resampler interface {
	Resample(capturedPath, outPath string) error
}

// Service sequences the report pipeline. Each stage owns the buffer it
// receives and produces a new one; failures at any stage abort the run with
// no partial result.
type Service struct {
	fetcher    Fetcher
	classifier detect.Classifier
	mutator    *report.Mutator
	renderer   Renderer
	resampler  Resampler

	source config.SourceConfig
	output config.OutputConfig
	spec   types.RenderSpec

	logger  *slog.Logger
	metrics *observability.Metrics
	nowFn   func() time.Time // injected for tests; defaults to time.Now
}

// ServiceConfig holds the dependencies for creating a Service.
type ServiceConfig struct {
	Fetcher    Fetcher
	Classifier detect.Classifier
	Mutator    *report.Mutator
	Renderer   Renderer
	Resampler  Resampler
	Source     config.SourceConfig
	Output     config.OutputConfig
	RenderSpec types.RenderSpec
	Logger     *slog.Logger
	Metrics    *observability.Metrics // optional
}

// NewService creates a Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:    cfg.Fetcher,
		classifier: cfg.Classifier,
		mutator:    cfg.Mutator,
		renderer:   cfg.Renderer,
		resampler:  cfg.Resampler,
		source:     cfg.Source,
		output:     cfg.Output,
		spec:       cfg.RenderSpec,
		logger:     logger,
		metrics:    cfg.Metrics,
		nowFn:      time.Now,
	}
}

// Generate runs the full pipeline:
// acquire -> crop -> detect -> classify -> mutate -> render -> resample.
//
// Durable artifacts are written under the data directory: the cropped chart
// (referenced by the template), the mutated template, and the final report
// image. The final image is renamed into place atomically by the resampler,
// so concurrent readers see either the previous run's file or the new one.
func (s *Service) Generate(ctx context.Context) (*types.ForecastResult, error) {
	started := s.nowFn()
	result, err := s.generate(ctx)

	if s.metrics != nil {
		s.metrics.GenerationDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			s.metrics.GenerationsTotal.WithLabelValues("error").Inc()
		} else {
			s.metrics.GenerationsTotal.WithLabelValues("success").Inc()
			s.metrics.SetAlertLevel(string(result.AlertStatus.Level))
			s.metrics.LastGenerationTime.SetToCurrentTime()
		}
	}

	if err != nil {
		s.logger.Error("report generation failed", slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("report generated",
		slog.String("alert_level", string(result.AlertStatus.Level)),
		slog.Float64("red_pct", result.ColorDetection.RedPercentage),
		slog.Float64("yellow_pct", result.ColorDetection.YellowPercentage),
		slog.String("output", result.OutputImagePath),
	)
	return result, nil
}

func (s *Service) generate(ctx context.Context) (*types.ForecastResult, error) {
	if err := os.MkdirAll(s.output.DataDir, 0o755); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected, "failed to create data directory", err)
	}

	// Acquire.
	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.FetchErrors.Inc()
		}
		return nil, err
	}

	// Crop the branding margins off the chart.
	cropped, err := imgproc.Crop(raw, s.source.CropTop, s.source.CropBottom)
	if err != nil {
		return nil, err
	}
	croppedPath := s.output.CroppedImagePath()
	if err := os.WriteFile(croppedPath, cropped, 0o644); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected, "failed to write cropped chart", err)
	}

	// Classify pixel colors and derive the alert level.
	detection, err := detect.Detect(cropped, s.classifier.Threshold)
	if err != nil {
		return nil, err
	}
	status := s.classifier.Classify(detection)

	s.logger.Info("forecast classified",
		slog.String("alert_level", string(status.Level)),
		slog.Float64("red_pct", detection.RedPercentage),
		slog.Float64("yellow_pct", detection.YellowPercentage),
		slog.Int("total_pixels", detection.TotalPixels),
	)

	// Mutate the report template next to the cropped chart it references.
	templatePath := s.output.TemplatePath()
	if err := s.mutator.WriteFile(templatePath, status, s.nowFn()); err != nil {
		return nil, err
	}

	// Render and capture.
	capturePath, err := s.renderer.Capture(ctx, templatePath, s.spec)
	if err != nil {
		return nil, err
	}

	// Resample into the final asset.
	outputPath := s.output.ReportImagePath()
	if err := s.resampler.Resample(capturePath, outputPath); err != nil {
		return nil, err
	}

	return &types.ForecastResult{
		ImageProcessed:  true,
		ImagePath:       croppedPath,
		ColorDetection:  detection,
		AlertStatus:     status,
		OutputImagePath: outputPath,
		GeneratedAt:     s.nowFn().UTC(),
	}, nil
}
