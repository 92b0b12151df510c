package forecast

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"ripwatch/internal/types"
)

// generationKey is the single-flight key. Generation is keyed by "the current
// generation", not per-argument: there is exactly one report, one template,
// and one output path, so all concurrent callers share one in-flight run.
const generationKey = "report-generation"

// Generator runs one pipeline pass. Implemented by *Service.
type Generator interface {
	Generate(ctx context.Context) (*types.ForecastResult, error)
}

// Coordinator owns the canonical output path and the single-flight guard
// around generation. It is injected into every collaborator that can trigger
// or read a generation (HTTP handlers, the scheduler), replacing ambient
// shared file-system state with an explicit dependency.
type Coordinator struct {
	generator  Generator
	outputPath string
	logger     *slog.Logger

	group singleflight.Group

	mu   sync.RWMutex
	last *types.ForecastResult
}

// NewCoordinator creates a Coordinator for the given generator and canonical
// output path.
func NewCoordinator(generator Generator, outputPath string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		generator:  generator,
		outputPath: outputPath,
		logger:     logger,
	}
}

// OutputPath returns the canonical path of the final report image.
func (c *Coordinator) OutputPath() string {
	return c.outputPath
}

// Last returns the most recent successful result, or nil if no generation
// has completed in this process yet.
func (c *Coordinator) Last() *types.ForecastResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Generate runs the pipeline, sharing any in-flight run with concurrent
// callers. A second trigger arriving while a generation is already running
// awaits that run's result rather than starting its own.
//
// The pipeline runs on a context detached from the triggering caller:
// cancellation mid-render is not supported, and a cancelled HTTP request must
// not abort a run other callers are waiting on. The launch and element-wait
// timeouts remain the bounded-wait mechanisms.
func (c *Coordinator) Generate(ctx context.Context) (*types.ForecastResult, error) {
	runCtx := context.WithoutCancel(ctx)

	v, err, shared := c.group.Do(generationKey, func() (interface{}, error) {
		res, err := c.generator.Generate(runCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.last = res
		c.mu.Unlock()
		return res, nil
	})
	if shared {
		c.logger.Debug("joined in-flight generation")
	}
	if err != nil {
		return nil, err
	}
	return v.(*types.ForecastResult), nil
}

// EnsureReport returns the current report, generating one only when none
// exists yet. A result is considered present when this process has a
// completed run AND its output file is still on disk.
func (c *Coordinator) EnsureReport(ctx context.Context) (*types.ForecastResult, error) {
	if res := c.Last(); res != nil && fileExists(res.OutputImagePath) {
		return res, nil
	}
	return c.Generate(ctx)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
