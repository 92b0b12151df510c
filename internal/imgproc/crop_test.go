package imgproc

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

// stripedPNG builds an image whose rows are numbered via the red channel so
// tests can verify which rows survived the crop.
func stripedPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(y % 256), G: 10, B: 20, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestCropRemovesMargins(t *testing.T) {
	src := stripedPNG(t, 40, 200)

	out, err := Crop(src, 30, 50)
	require.NoError(t, err)

	img := decodePNG(t, out)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy(), "height must be H - top - bottom")

	// The first surviving row must be the original row 30.
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint8(30), uint8(r>>8))

	// The last surviving row must be the original row 149.
	r, _, _, _ = img.At(0, 119).RGBA()
	assert.Equal(t, uint8(149), uint8(r>>8))
}

func TestCropZeroMarginsPreservesContent(t *testing.T) {
	src := stripedPNG(t, 16, 32)

	out, err := Crop(src, 0, 0)
	require.NoError(t, err)

	orig := decodePNG(t, src)
	img := decodePNG(t, out)
	require.Equal(t, orig.Bounds(), img.Bounds())

	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			assert.Equal(t, orig.At(x, y), img.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestCropUndecodableBytes(t *testing.T) {
	_, err := Crop([]byte("definitely not an image"), 10, 10)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeDecodeFailed, appErr.Code)
}

// TestCropOversizedMarginsSurfacesDownstream verifies the transform does not
// clamp: margins that consume the whole image fail at encode time rather than
// being silently adjusted.
func TestCropOversizedMarginsSurfacesDownstream(t *testing.T) {
	src := stripedPNG(t, 20, 40)

	_, err := Crop(src, 30, 30)
	require.Error(t, err)
}
