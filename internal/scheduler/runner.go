// Package scheduler triggers report generation on a fixed interval so the
// published report never goes stale, independent of HTTP traffic.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"ripwatch/internal/types"
)

// Trigger starts (or joins) a report generation. Implemented by
// *forecast.Coordinator.
type Trigger interface {
	Generate(ctx context.Context) (*types.ForecastResult, error)
}

// Notifier dispatches a completed report. Implemented by *email.Channel.
type Notifier interface {
	NotifyReport(ctx context.Context, result *types.ForecastResult) error
}

// Runner drives periodic generation. A failed cycle is logged and the loop
// keeps going; the next tick gets a fresh attempt. Notification failures
// never fail the cycle either, since the report itself already succeeded.
type Runner struct {
	trigger  Trigger
	notifier Notifier // optional
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// RunnerConfig holds the dependencies for creating a Runner.
type RunnerConfig struct {
	Trigger  Trigger
	Notifier Notifier // optional; nil disables dispatch
	Interval time.Duration
	Clock    clockwork.Clock // optional; defaults to the real clock
	Logger   *slog.Logger
}

// NewRunner creates a Runner with the given configuration.
func NewRunner(cfg RunnerConfig) *Runner {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		trigger:  cfg.Trigger,
		notifier: cfg.Notifier,
		interval: cfg.Interval,
		clock:    clock,
		logger:   logger,
	}
}

// Run generates once immediately, then on every interval tick until the
// context is cancelled. It returns the context's error on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scheduler started", slog.Duration("interval", r.interval))

	r.cycle(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.Chan():
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	result, err := r.trigger.Generate(ctx)
	if err != nil {
		r.logger.Error("scheduled generation failed", slog.Any("error", err))
		return
	}

	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyReport(ctx, result); err != nil {
		r.logger.Warn("report notification failed", slog.Any("error", err))
	}
}
