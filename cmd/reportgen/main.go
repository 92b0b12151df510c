// Package main implements the one-shot report generator CLI. It runs a single
// pipeline pass -- fetch, classify, render, resample -- and prints the result,
// which makes it suitable for cron jobs and manual verification.
//
// Usage:
//
//	go run ./cmd/reportgen
//	go run ./cmd/reportgen --timeout=3m
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ripwatch/internal/config"
	"ripwatch/internal/detect"
	"ripwatch/internal/forecast"
	"ripwatch/internal/imgproc"
	"ripwatch/internal/observability"
	"ripwatch/internal/render"
	"ripwatch/internal/report"
)

func main() {
	timeoutFlag := flag.Duration("timeout", 3*time.Minute, "overall deadline for the generation pass")
	flag.Parse()

	if err := run(*timeoutFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.Service, cfg.Environment)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

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
	})

	result, err := service.Generate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("alert level:  %s (%s / %s)\n",
		result.AlertStatus.Level, result.AlertStatus.LabelEnglish, result.AlertStatus.LabelSpanish)
	fmt.Printf("red pixels:   %.2f%%\n", result.ColorDetection.RedPercentage)
	fmt.Printf("yellow pixels: %.2f%%\n", result.ColorDetection.YellowPercentage)
	fmt.Printf("report:       %s\n", result.OutputImagePath)
	return nil
}
