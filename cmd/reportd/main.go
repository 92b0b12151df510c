// Package main runs the RipWatch report daemon: the HTTP API, the periodic
// generation scheduler, and optional email dispatch of completed reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"ripwatch/internal/api"
	"ripwatch/internal/config"
	"ripwatch/internal/detect"
	"ripwatch/internal/forecast"
	"ripwatch/internal/imgproc"
	"ripwatch/internal/notifications/email"
	"ripwatch/internal/observability"
	"ripwatch/internal/render"
	"ripwatch/internal/report"
	"ripwatch/internal/scheduler"
)

// shutdownTimeout bounds graceful HTTP server termination.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.Service, cfg.Environment)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mutator, err := report.NewMutator()
	if err != nil {
		return fmt.Errorf("loading report template: %w", err)
	}

	service := forecast.NewService(forecast.ServiceConfig{
		Fetcher:    forecast.NewImageFetcher(cfg.Source.ImageURL, cfg.Source.FetchTimeout, logger),
		Classifier: detect.Classifier{Threshold: cfg.Detection.Threshold},
		Mutator:    mutator,
		Renderer: render.NewChromeRenderer(render.ChromeRendererConfig{
			LaunchTimeout:   cfg.Render.LaunchTimeout,
			SelectorTimeout: cfg.Render.SelectorTimeout,
			AssetGraceDelay: cfg.Render.AssetGraceDelay,
			Logger:          logger,
		}),
		Resampler: imgproc.NewResampler(
			cfg.Output.TargetWidth, cfg.Output.OutputFormat(), cfg.Output.JPEGQuality, logger),
		Source:     cfg.Source,
		Output:     cfg.Output,
		RenderSpec: cfg.RenderSpec(),
		Logger:     logger,
		Metrics:    metrics,
	})

	coordinator := forecast.NewCoordinator(service, cfg.Output.ReportImagePath(), logger)

	var notifier scheduler.Notifier
	if cfg.Email.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		notifier = email.NewChannel(email.ChannelConfig{
			Provider: email.NewSESProvider(awsCfg, email.SESProviderConfig{Logger: logger}),
			Email:    cfg.Email,
			Logger:   logger,
		})
	}

	if cfg.Scheduler.Enabled {
		runner := scheduler.NewRunner(scheduler.RunnerConfig{
			Trigger:  coordinator,
			Notifier: notifier,
			Interval: cfg.Scheduler.Interval,
			Logger:   logger,
		})
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler exited", slog.Any("error", err))
			}
		}()
	}

	server, err := api.NewServer(cfg, coordinator, logger)
	if err != nil {
		return fmt.Errorf("building API server: %w", err)
	}
	server.Metrics = observability.NewHTTPMetrics()
	server.MountRoutes()

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
