package detect

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripwatch/internal/types"
)

// chartPNG builds a synthetic forecast chart and returns its PNG encoding.
// fill decides the color of each pixel.
func chartPNG(t *testing.T, width, height int, fill func(x, y int) color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	oceanBlue  = color.NRGBA{R: 50, G: 150, B: 200, A: 255}
	hazardRed  = color.NRGBA{R: 200, G: 50, B: 50, A: 255}
	cautionYel = color.NRGBA{R: 230, G: 210, B: 40, A: 255}
)

// TestDetectRedChart covers end-to-end scenario A: a 500x310 chart with 30%
// of pixels at RGB(200,50,50) and threshold 0.5.
func TestDetectRedChart(t *testing.T) {
	// The first 93 of 310 rows are red: 93*500 / 155000 = exactly 30%.
	data := chartPNG(t, 500, 310, func(x, y int) color.NRGBA {
		if y < 93 {
			return hazardRed
		}
		return oceanBlue
	})

	res, err := Detect(data, 0.5)
	require.NoError(t, err)

	assert.True(t, res.HasRed)
	assert.False(t, res.HasYellow)
	assert.InDelta(t, 30.00, res.RedPercentage, 0.01)
	assert.Equal(t, 155000, res.TotalPixels)
}

// TestDetectOceanOnlyChart covers end-to-end scenario B: an all-ocean chart
// produces no red and no yellow.
func TestDetectOceanOnlyChart(t *testing.T) {
	data := chartPNG(t, 500, 310, func(x, y int) color.NRGBA {
		return oceanBlue
	})

	res, err := Detect(data, 0.5)
	require.NoError(t, err)

	assert.False(t, res.HasRed)
	assert.False(t, res.HasYellow)
	assert.Zero(t, res.RedPercentage)
	assert.Zero(t, res.YellowPercentage)
}

// TestDetectYellowChart verifies yellow pixels are counted and red is not.
func TestDetectYellowChart(t *testing.T) {
	data := chartPNG(t, 200, 100, func(x, y int) color.NRGBA {
		if y < 10 {
			return cautionYel
		}
		return oceanBlue
	})

	res, err := Detect(data, 0.5)
	require.NoError(t, err)

	assert.False(t, res.HasRed)
	assert.True(t, res.HasYellow)
	assert.InDelta(t, 10.00, res.YellowPercentage, 0.01)
}

// TestDetectThresholdBoundary verifies HasRed uses >= against the threshold.
func TestDetectThresholdBoundary(t *testing.T) {
	// Exactly 1% red.
	data := chartPNG(t, 100, 100, func(x, y int) color.NRGBA {
		if y == 0 {
			return hazardRed
		}
		return oceanBlue
	})

	atThreshold, err := Detect(data, 1.0)
	require.NoError(t, err)
	assert.True(t, atThreshold.HasRed, "percentage equal to threshold should set HasRed")

	aboveThreshold, err := Detect(data, 1.01)
	require.NoError(t, err)
	assert.False(t, aboveThreshold.HasRed)
}

// TestDetectPercentageInvariants verifies both percentages lie in [0,100] and
// never sum above 100, for a mixed chart.
func TestDetectPercentageInvariants(t *testing.T) {
	data := chartPNG(t, 120, 90, func(x, y int) color.NRGBA {
		switch {
		case y < 20:
			return hazardRed
		case y < 50:
			return cautionYel
		default:
			return oceanBlue
		}
	})

	res, err := Detect(data, 0.5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.RedPercentage, 0.0)
	assert.LessOrEqual(t, res.RedPercentage, 100.0)
	assert.GreaterOrEqual(t, res.YellowPercentage, 0.0)
	assert.LessOrEqual(t, res.YellowPercentage, 100.0)
	assert.LessOrEqual(t, res.RedPercentage+res.YellowPercentage, 100.0)
}

// TestDetectDeterministic verifies repeated calls over the same bytes yield
// identical results.
func TestDetectDeterministic(t *testing.T) {
	data := chartPNG(t, 64, 64, func(x, y int) color.NRGBA {
		if (x+y)%7 == 0 {
			return hazardRed
		}
		return oceanBlue
	})

	first, err := Detect(data, 0.5)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Detect(data, 0.5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// TestDetectMutualExclusivity verifies a pixel is counted at most once: a
// borderline orange that passes the red gate must not also count as yellow.
func TestDetectMutualExclusivity(t *testing.T) {
	// R=255, G=160: red dominance holds (255 > 240), so every pixel is red
	// even though G>150 and |R-G|>50 keeps yellow out anyway.
	data := chartPNG(t, 10, 10, func(x, y int) color.NRGBA {
		return color.NRGBA{R: 255, G: 160, B: 40, A: 255}
	})

	res, err := Detect(data, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, res.RedPercentage, 0.01)
	assert.Zero(t, res.YellowPercentage)
}

// TestDetectUndecodableBytes verifies the decode failure mode.
func TestDetectUndecodableBytes(t *testing.T) {
	_, err := Detect([]byte("not an image at all"), 0.5)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeDecodeFailed, appErr.Code)
}
