package render

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"ripwatch/internal/types"
)

// reportSelector is the layout element the renderer waits for and captures.
// It matches the container div in the report template.
const reportSelector = "#report"

// elementCaptureTimeout bounds each individual capture attempt so a hung
// strategy cannot consume the whole run.
const elementCaptureTimeout = 5 * time.Second

// Renderer abstracts the off-process rendering engine. Capture loads the
// template from the local filesystem and returns the path of a temporary
// screenshot file owned by the caller.
type Renderer interface {
	Capture(ctx context.Context, templatePath string, spec types.RenderSpec) (string, error)
}

// ChromeRenderer implements Renderer by launching an isolated headless Chrome
// instance per capture. The instance is resource-constrained (no GPU, no
// /dev/shm, no extensions) and is torn down on every exit path: page, then
// browsing context, then process, in that order.
type ChromeRenderer struct {
	launchTimeout   time.Duration
	selectorTimeout time.Duration
	assetGraceDelay time.Duration
	tempDir         string
	logger          *slog.Logger
}

// ChromeRendererConfig holds the settings for creating a ChromeRenderer.
type ChromeRendererConfig struct {
	// LaunchTimeout bounds browser startup (default 30s).
	LaunchTimeout time.Duration
	// SelectorTimeout bounds the wait for the report element (default 10s).
	SelectorTimeout time.Duration
	// AssetGraceDelay is a fixed delay after the selector appears, allowing
	// the background chart image to finish loading. Network-idle heuristics
	// are unreliable for file:// navigation with external image references,
	// hence the fixed delay.
	AssetGraceDelay time.Duration
	// TempDir is where raw captures are written. Defaults to os.TempDir().
	TempDir string
	// Logger for renderer lifecycle events.
	Logger *slog.Logger
}

// NewChromeRenderer creates a ChromeRenderer with the given configuration,
// applying defaults for zero values.
func NewChromeRenderer(cfg ChromeRendererConfig) *ChromeRenderer {
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = 30 * time.Second
	}
	if cfg.SelectorTimeout <= 0 {
		cfg.SelectorTimeout = 10 * time.Second
	}
	if cfg.AssetGraceDelay <= 0 {
		cfg.AssetGraceDelay = 2 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeRenderer{
		launchTimeout:   cfg.LaunchTimeout,
		selectorTimeout: cfg.SelectorTimeout,
		assetGraceDelay: cfg.AssetGraceDelay,
		tempDir:         cfg.TempDir,
		logger:          logger,
	}
}

// Capture launches the browser, loads the template, screenshots the report
// element, and returns the temp file holding the raw capture. The caller
// owns the file and is expected to delete it after resampling.
func (r *ChromeRenderer) Capture(ctx context.Context, templatePath string, spec types.RenderSpec) (string, error) {
	absPath, err := filepath.Abs(templatePath)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeRenderLaunchFailed, "failed to resolve template path", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(spec.ViewportWidth, spec.ViewportHeight),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Teardown runs on both success and failure paths, strictly page ->
	// context -> process. chromedp.Cancel closes the open page and the
	// browsing context gracefully; cancelling the allocator then reaps the
	// process. Teardown failures are logged, never propagated: they must
	// not mask the run's real error.
	defer func() {
		if err := chromedp.Cancel(browserCtx); err != nil {
			r.logger.Warn("renderer teardown failed", slog.Any("error", err))
		}
		cancelBrowser()
		cancelAlloc()
	}()

	// Launching -> Ready: starting the browser is bounded by the launch
	// timeout. No automatic retry on failure.
	launchCtx, cancelLaunch := context.WithTimeout(browserCtx, r.launchTimeout)
	defer cancelLaunch()
	if err := chromedp.Run(launchCtx,
		chromedp.EmulateViewport(
			int64(spec.ViewportWidth),
			int64(spec.ViewportHeight),
			chromedp.EmulateScale(spec.DeviceScaleFactor),
		),
	); err != nil {
		return "", types.NewAppError(
			types.ErrCodeRenderLaunchFailed, "rendering engine failed to start", err)
	}

	// Ready -> Loaded: navigate to the local template and wait for the
	// report container, bounded by the selector timeout. A missed selector
	// is not fatal: the capture chain below can still fall back to a
	// full-page screenshot.
	if err := chromedp.Run(browserCtx, chromedp.Navigate("file://"+absPath)); err != nil {
		return "", types.NewAppError(
			types.ErrCodeRenderCaptureFailed, "failed to load report template", err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, r.selectorTimeout)
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(reportSelector, chromedp.ByQuery)); err != nil {
		r.logger.Warn("report element did not become visible",
			slog.String("selector", reportSelector), slog.Any("error", err))
	}
	cancelWait()

	// Grace delay for the chart image referenced by the template.
	if err := chromedp.Run(browserCtx, chromedp.Sleep(r.assetGraceDelay)); err != nil {
		return "", types.NewAppError(
			types.ErrCodeRenderCaptureFailed, "interrupted while waiting for assets", err)
	}

	// Loaded -> Captured: exactly one strategy succeeds per run.
	buf, strategy, err := runStrategies(ctx, r.logger, r.captureStrategies(browserCtx))
	if err != nil {
		return "", err
	}

	capturePath := filepath.Join(r.tempDir, "ripwatch-capture-"+uuid.NewString()+".png")
	if err := os.WriteFile(capturePath, buf, 0o644); err != nil {
		return "", types.NewAppError(
			types.ErrCodeRenderCaptureFailed, "failed to write raw capture", err)
	}

	r.logger.Info("capture complete",
		slog.String("strategy", strategy),
		slog.String("path", capturePath),
		slog.Int("bytes", len(buf)),
	)
	return capturePath, nil
}

// captureStrategies builds the ordered fallback chain over the live browser
// context: visible element screenshot, element screenshot without visibility
// gating, then full page.
func (r *ChromeRenderer) captureStrategies(browserCtx context.Context) []CaptureStrategy {
	return []CaptureStrategy{
		{
			Name: "element-visible",
			Run: func(context.Context) ([]byte, error) {
				ctx, cancel := context.WithTimeout(browserCtx, elementCaptureTimeout)
				defer cancel()
				var buf []byte
				err := chromedp.Run(ctx,
					chromedp.Screenshot(reportSelector, &buf, chromedp.NodeVisible, chromedp.ByQuery))
				return buf, err
			},
		},
		{
			Name: "element-handle",
			Run: func(context.Context) ([]byte, error) {
				ctx, cancel := context.WithTimeout(browserCtx, elementCaptureTimeout)
				defer cancel()
				var buf []byte
				err := chromedp.Run(ctx,
					chromedp.Screenshot(reportSelector, &buf, chromedp.NodeReady, chromedp.ByQuery))
				return buf, err
			},
		},
		{
			Name: "full-page",
			Run: func(context.Context) ([]byte, error) {
				ctx, cancel := context.WithTimeout(browserCtx, 2*elementCaptureTimeout)
				defer cancel()
				var buf []byte
				// Quality 100 keeps the capture in PNG.
				err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100))
				return buf, err
			},
		},
	}
}
