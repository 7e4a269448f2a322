package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 60, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	photo, err := Normalize(testJPEG(t, 200, 100))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.MIME)
	assert.NotEmpty(t, photo.Data)
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	photo, err := Normalize(testPNG(t, 120, 120))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.MIME)
}

func TestNormalizeDownscales(t *testing.T) {
	photo, err := Normalize(testJPEG(t, 4000, 2000))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, img.Bounds().Dx())
	assert.Equal(t, MaxDimension/2, img.Bounds().Dy())
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	photo, err := Normalize(testJPEG(t, 64, 48))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestNormalizeRejectsJunk(t *testing.T) {
	_, err := Normalize([]byte("not a photo at all"))
	assert.Error(t, err)
}

func TestNormalizeRejectsGIF(t *testing.T) {
	_, err := Normalize([]byte("GIF89a......"))
	assert.Error(t, err)
}
