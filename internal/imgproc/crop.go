// Package imgproc implements the image transforms of the report pipeline:
// the margin crop applied to the raw forecast chart and the aspect-preserving
// resample applied to the captured report screenshot.
package imgproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"ripwatch/internal/types"
)

// Crop removes the given top and bottom pixel margins from the image and
// returns the result re-encoded as PNG. The chart's branding header and
// legend footer are stripped this way before color detection.
//
// The source must expose known dimensions; otherwise the call fails with an
// image_missing_dimensions AppError. The caller is responsible for ensuring
// top+bottom < height: the transform does not clamp, and a non-positive
// result height surfaces as an encoding failure downstream.
func Crop(data []byte, top, bottom int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeDecodeFailed, "failed to read forecast image header", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, types.NewAppError(
			types.ErrCodeMissingDimensions, "forecast image has no dimensions", nil)
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeDecodeFailed, "failed to decode forecast image", err)
	}

	// Build the rectangle literally rather than via image.Rect: Rect would
	// canonicalize a negative height by swapping corners, hiding a margin
	// misconfiguration instead of letting it fail at encode time.
	newHeight := cfg.Height - top - bottom
	cropped := imaging.Crop(src, image.Rectangle{
		Min: image.Pt(0, top),
		Max: image.Pt(cfg.Width, top+newHeight),
	})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeDecodeFailed, "failed to encode cropped image", err,
			map[string]any{"new_height": newHeight})
	}
	return buf.Bytes(), nil
}
