package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(t *testing.T, width, height int) *image.RGBA {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	return img
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, makeTestImage(t, width, height)))

	return buf.Bytes()
}

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, makeTestImage(t, width, height), nil))

	return buf.Bytes()
}

func makeGIF(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, gif.Encode(buf, makeTestImage(t, width, height), nil))

	return buf.Bytes()
}

func TestNormalizeKeepsSmallImageUntouched(t *testing.T) {
	converter := NewImagingConverter(128)
	data := makePNG(t, 64, 48)

	out, mime, err := converter.Normalize(data, "image/png")

	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, "image/png", mime)
}

func TestNormalizeDownscalesOversizedPNG(t *testing.T) {
	converter := NewImagingConverter(128)
	data := makePNG(t, 300, 200)

	out, mime, err := converter.Normalize(data, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.LessOrEqual(t, img.Bounds().Dx(), 128)
	assert.LessOrEqual(t, img.Bounds().Dy(), 128)
}

func TestNormalizeKeepsJPEGFormat(t *testing.T) {
	converter := NewImagingConverter(128)
	data := makeJPEG(t, 400, 300)

	out, mime, err := converter.Normalize(data, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizePreservesAspectRatio(t *testing.T) {
	converter := NewImagingConverter(128)
	data := makePNG(t, 400, 100)

	out, _, err := converter.Normalize(data, "image/png")

	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestNormalizeReencodesOversizedGIFAsPNG(t *testing.T) {
	converter := NewImagingConverter(128)
	data := makeGIF(t, 300, 300)

	out, mime, err := converter.Normalize(data, "image/gif")

	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizePassesThroughUndecodableData(t *testing.T) {
	converter := NewImagingConverter(128)
	data := []byte("RIFF....WEBPVP8 not actually decodable here")

	out, mime, err := converter.Normalize(data, "image/webp")

	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, "image/webp", mime)
}

func TestNewImagingConverterDefaultsMaxEdge(t *testing.T) {
	converter := NewImagingConverter(0)

	assert.Equal(t, DefaultMaxEdge, converter.maxEdge)
}
