// Package render implements the headless capture of the mutated report
// template. It manages the lifecycle of an isolated Chrome process per
// pipeline run and screenshots the report element through an ordered chain of
// capture strategies with progressively weaker requirements.
package render

import (
	"context"
	"log/slog"
	"strings"

	"ripwatch/internal/types"
)

// CaptureStrategy is one attempt at producing screenshot bytes. Strategies
// are tried in order; the first one to succeed wins and later strategies are
// never invoked.
type CaptureStrategy struct {
	// Name identifies the strategy in logs and error details.
	Name string
	// Run performs the capture attempt.
	Run func(ctx context.Context) ([]byte, error)
}

// runStrategies walks the chain in order and returns the bytes and the name
// of the first succeeding strategy. When every strategy fails, it returns a
// render_capture_failed AppError naming the attempts.
func runStrategies(ctx context.Context, logger *slog.Logger, strategies []CaptureStrategy) ([]byte, string, error) {
	attempted := make([]string, 0, len(strategies))

	for _, s := range strategies {
		attempted = append(attempted, s.Name)

		buf, err := s.Run(ctx)
		if err == nil && len(buf) > 0 {
			logger.Info("capture strategy succeeded", slog.String("strategy", s.Name))
			return buf, s.Name, nil
		}

		logger.Warn("capture strategy failed",
			slog.String("strategy", s.Name),
			slog.Any("error", err),
		)
	}

	return nil, "", types.NewAppErrorWithDetails(
		types.ErrCodeRenderCaptureFailed,
		"all capture strategies exhausted",
		nil,
		map[string]any{"attempted": strings.Join(attempted, ",")},
	)
}
