package imgproc

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripwatch/internal/types"
)

// writeCapture creates a synthetic raw capture file of the given dimensions.
func writeCapture(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 30, G: 90, B: 160, A: 255})
	path := filepath.Join(dir, "capture.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestResamplePreservesAspectRatio(t *testing.T) {
	// Viewport 930x1500 at device scale 2 yields a 1860x3000 capture.
	dir := t.TempDir()
	capture := writeCapture(t, dir, 1860, 3000)
	out := filepath.Join(dir, "report.png")

	r := NewResampler(1500, types.FormatPNG, 90, nil)
	require.NoError(t, r.Resample(capture, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)

	assert.Equal(t, 1500, img.Bounds().Dx())
	// round(1500 / (1860/3000)) = round(2419.35) = 2419 — derived from the
	// true capture ratio, not a hardcoded constant.
	assert.Equal(t, 2419, img.Bounds().Dy())
}

func TestResampleAspectRatioProperty(t *testing.T) {
	ratios := []struct{ w, h int }{
		{800, 600},
		{1024, 1024},
		{640, 1200},
		{1920, 1080},
	}

	for _, rt := range ratios {
		dir := t.TempDir()
		capture := writeCapture(t, dir, rt.w, rt.h)
		out := filepath.Join(dir, "report.png")

		r := NewResampler(1500, types.FormatPNG, 90, nil)
		require.NoError(t, r.Resample(capture, out))

		img, err := imaging.Open(out)
		require.NoError(t, err)

		gotW := img.Bounds().Dx()
		gotH := img.Bounds().Dy()
		require.Equal(t, 1500, gotW)

		resultAspect := float64(gotW) / float64(gotH)
		assert.InDelta(t, float64(gotH), math.Round(float64(gotW)/resultAspect), 1,
			"capture %dx%d", rt.w, rt.h)

		sourceAspect := float64(rt.w) / float64(rt.h)
		assert.InDelta(t, math.Round(1500/sourceAspect), float64(gotH), 1,
			"height must follow the source aspect ratio for %dx%d", rt.w, rt.h)
	}
}

func TestResampleRemovesRawCapture(t *testing.T) {
	dir := t.TempDir()
	capture := writeCapture(t, dir, 400, 300)
	out := filepath.Join(dir, "report.png")

	r := NewResampler(800, types.FormatPNG, 90, nil)
	require.NoError(t, r.Resample(capture, out))

	_, err := os.Stat(capture)
	assert.True(t, os.IsNotExist(err), "raw capture must be deleted after resampling")

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp output must not linger after rename")
}

func TestResampleJPEGOutput(t *testing.T) {
	dir := t.TempDir()
	capture := writeCapture(t, dir, 600, 400)
	out := filepath.Join(dir, "report.jpg")

	r := NewResampler(900, types.FormatJPEG, 80, nil)
	require.NoError(t, r.Resample(capture, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 900, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestResampleMissingCapture(t *testing.T) {
	dir := t.TempDir()

	r := NewResampler(1500, types.FormatPNG, 90, nil)
	err := r.Resample(filepath.Join(dir, "nope.png"), filepath.Join(dir, "report.png"))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeResampleFailed, appErr.Code)
}
