package imgproc

import (
	"image"
	"log/slog"
	"math"
	"os"

	"github.com/disintegration/imaging"

	"ripwatch/internal/types"
)

// sharpenSigma is the strength of the sharpening pass applied after the
// enlargement. Lanczos upscaling softens fine chart strokes slightly; this
// compensates without introducing visible halos at 2x supersampling.
const sharpenSigma = 0.8

// Resampler converts a raw screenshot capture into the final report asset:
// it measures the true captured dimensions, resizes to the target width while
// preserving the aspect ratio exactly, sharpens, and encodes to the requested
// format.
type Resampler struct {
	TargetWidth int
	Format      types.OutputFormat
	JPEGQuality int
	Logger      *slog.Logger
}

// NewResampler creates a Resampler. A nil logger falls back to slog.Default().
func NewResampler(targetWidth int, format types.OutputFormat, jpegQuality int, logger *slog.Logger) *Resampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resampler{
		TargetWidth: targetWidth,
		Format:      format,
		JPEGQuality: jpegQuality,
		Logger:      logger,
	}
}

// Resample reads the raw capture at capturedPath, produces the final image at
// outPath, and removes the capture file.
//
// The target height is computed from the capture's true aspect ratio, not the
// logical viewport (device scale multiplies the capture dimensions):
//
//	targetHeight = round(TargetWidth / (capturedWidth/capturedHeight))
//
// The write goes to a fresh temp path next to outPath and is renamed over it
// at the end, so concurrent readers never observe a partial file. Deleting
// the capture is best-effort; a failure there is logged and swallowed.
func (r *Resampler) Resample(capturedPath, outPath string) error {
	src, err := imaging.Open(capturedPath)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeResampleFailed, "failed to open captured screenshot", err)
	}

	bounds := src.Bounds()
	capturedWidth := bounds.Dx()
	capturedHeight := bounds.Dy()
	if capturedWidth == 0 || capturedHeight == 0 {
		return types.NewAppError(
			types.ErrCodeResampleFailed, "captured screenshot has no dimensions", nil)
	}

	aspect := float64(capturedWidth) / float64(capturedHeight)
	targetHeight := int(math.Round(float64(r.TargetWidth) / aspect))

	r.Logger.Info("resampling capture",
		slog.Int("captured_width", capturedWidth),
		slog.Int("captured_height", capturedHeight),
		slog.Int("target_width", r.TargetWidth),
		slog.Int("target_height", targetHeight),
	)

	resized := imaging.Resize(src, r.TargetWidth, targetHeight, imaging.Lanczos)
	sharpened := imaging.Sharpen(resized, sharpenSigma)

	tmpPath := outPath + ".tmp"
	if err := r.encode(sharpened, tmpPath); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return types.NewAppError(
			types.ErrCodeResampleFailed, "failed to move final image into place", err)
	}

	// Best-effort cleanup of the raw capture. A missing file is fine.
	if err := os.Remove(capturedPath); err != nil && !os.IsNotExist(err) {
		r.Logger.Warn("failed to remove raw capture", slog.String("path", capturedPath), slog.Any("error", err))
	}

	return nil
}

// encode writes the image to path in the configured format with
// format-appropriate quality settings. PNG is lossless; JPEG honors the
// configured quality.
func (r *Resampler) encode(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeResampleFailed, "failed to create output file", err)
	}

	var encErr error
	if r.Format == types.FormatJPEG {
		encErr = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(r.JPEGQuality))
	} else {
		encErr = imaging.Encode(f, img, imaging.PNG)
	}

	closeErr := f.Close()
	if encErr != nil {
		_ = os.Remove(path)
		return types.NewAppError(
			types.ErrCodeResampleFailed, "failed to encode final image", encErr)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return types.NewAppError(
			types.ErrCodeResampleFailed, "failed to flush output file", closeErr)
	}
	return nil
}
