// Package detect implements the pixel color classifier and the alert
// classifier for forecast chart images.
//
// The forecast chart encodes hazard level as colored regions: red for strong
// rip currents, yellow for moderate ones. Detection decodes the chart once
// into an uncompressed RGBA layout and walks the raw pixel buffer in
// channel-stride steps, so no per-pixel allocation happens on the hot path.
package detect

import (
	"bytes"
	"image"
	"image/draw"
	"math"

	// Registered decoders for the two chart encodings published upstream.
	_ "image/jpeg"
	_ "image/png"

	"ripwatch/internal/types"
)

// Per-pixel classification thresholds. A pixel is a red candidate when its
// red channel dominates both others by a 3:2 ratio; a yellow candidate when
// red and green are both high, blue is low, and red and green are close.
const (
	redMinValue    = 150
	redDominance   = 1.5
	yellowMinRed   = 150
	yellowMinGreen = 150
	yellowMaxBlue  = 150
	yellowMaxDiff  = 50
)

// Detect decodes the image bytes and counts pixels matching the red and
// yellow hazard heuristics. Red and yellow are mutually exclusive per pixel:
// the red rule is evaluated first and a matching pixel is never also counted
// as yellow.
//
// Percentages are rounded to two decimal places. HasRed and HasYellow report
// whether the respective percentage meets the threshold (in [0,100]).
//
// Fails with an image_decode_failed AppError when the bytes cannot be decoded;
// no partial result is returned.
func Detect(data []byte, threshold float64) (types.ColorDetectionResult, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return types.ColorDetectionResult{}, types.NewAppError(
			types.ErrCodeDecodeFailed, "failed to decode forecast image", err)
	}

	// Normalize to RGBA so the pixel walk below sees a fixed 4-byte stride
	// regardless of the source encoding (paletted PNG, JPEG YCbCr, ...).
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)
	}

	totalPixels := bounds.Dx() * bounds.Dy()
	if totalPixels == 0 {
		return types.ColorDetectionResult{}, types.NewAppError(
			types.ErrCodeDecodeFailed, "forecast image has no pixels", nil)
	}

	var redCount, yellowCount int
	pix := rgba.Pix
	for i := 0; i < len(pix); i += 4 {
		r := float64(pix[i])
		g := float64(pix[i+1])
		b := float64(pix[i+2])

		// Red first: it is the higher-priority signal and its gate is
		// stricter, so most pixels fail it on the first comparison.
		if r > redMinValue && r > redDominance*g && r > redDominance*b {
			redCount++
		} else if r > yellowMinRed && g > yellowMinGreen && b < yellowMaxBlue &&
			math.Abs(r-g) <= yellowMaxDiff {
			yellowCount++
		}
	}

	redPct := roundPercent(float64(redCount) / float64(totalPixels) * 100)
	yellowPct := roundPercent(float64(yellowCount) / float64(totalPixels) * 100)

	return types.ColorDetectionResult{
		HasRed:           redPct >= threshold,
		HasYellow:        yellowPct >= threshold,
		RedPercentage:    redPct,
		YellowPercentage: yellowPct,
		TotalPixels:      totalPixels,
	}, nil
}

// roundPercent rounds to two decimal places.
func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
