// Package forecast implements the report generation pipeline: it acquires
// the upstream forecast chart, classifies the hazard level from its pixels,
// renders the branded report through the headless capture engine, and
// produces the final high-resolution asset. The Coordinator guarantees at
// most one generation is in flight at a time.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"ripwatch/internal/types"
)

// maxImageBytes caps the downloaded chart size (16 MB). The published charts
// are a few hundred kilobytes; anything larger indicates an upstream problem.
const maxImageBytes = 16 << 20

// ImageFetcher downloads the forecast chart over HTTP. A circuit breaker
// guards the upstream: after repeated failures, scheduled runs fail fast
// instead of hammering a broken chart server. The pipeline itself never
// retries a failed fetch; retry policy belongs to the caller.
type ImageFetcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewImageFetcher creates an ImageFetcher for the given chart URL.
func NewImageFetcher(url string, timeout time.Duration, logger *slog.Logger) *ImageFetcher {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "forecast-image",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &ImageFetcher{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
		logger:  logger,
	}
}

// Fetch performs the HTTP GET and returns the raw chart bytes.
//
// Error mapping:
//   - non-2xx response -> fetch_bad_status with the status code in Details
//   - transport failure -> fetch_failed
//   - breaker open -> upstream_unavailable
func (f *ImageFetcher) Fetch(ctx context.Context) ([]byte, error) {
	data, err := f.breaker.Execute(func() ([]byte, error) {
		return f.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewAppError(
				types.ErrCodeUpstreamUnavailable, "forecast source circuit breaker open", err)
		}
		return nil, err
	}
	return data, nil
}

func (f *ImageFetcher) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeFetchFailed, "failed to build forecast request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeFetchFailed, "failed to download forecast image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeFetchBadStatus,
			fmt.Sprintf("forecast source returned status %d", resp.StatusCode),
			nil,
			map[string]any{"status": resp.StatusCode, "url": f.url},
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeFetchFailed, "failed to read forecast image body", err)
	}

	f.logger.Debug("forecast image downloaded",
		slog.String("url", f.url), slog.Int("bytes", len(data)))
	return data, nil
}
