package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessLogoDownscalesOpaqueToJPEG(t *testing.T) {
	logo, err := ProcessLogo(encodePNG(t, solid(1000, 400, color.NRGBA{R: 200, A: 255})))
	require.NoError(t, err)

	assert.Equal(t, MimeJPEG, logo.Mime)
	assert.Equal(t, 500, logo.Width)
	assert.Equal(t, 200, logo.Height)
	assert.True(t, strings.HasPrefix(logo.DataURI, "data:image/jpeg;base64,"))

	mime, data, err := DecodeDataURI(logo.DataURI)
	require.NoError(t, err)
	assert.Equal(t, MimeJPEG, mime)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
}

func TestProcessLogoKeepsTransparencyAsPNG(t *testing.T) {
	img := solid(300, 300, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(10, 10, color.NRGBA{A: 0})

	logo, err := ProcessLogo(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, MimePNG, logo.Mime)
	assert.Equal(t, 300, logo.Width)
}

func TestProcessLogoRejectsGarbage(t *testing.T) {
	_, err := ProcessLogo(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = ProcessLogo([]byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDecodeDataURI(t *testing.T) {
	_, _, err := DecodeDataURI("http://example.com/logo.png")
	assert.ErrorIs(t, err, ErrInvalidData)

	_, _, err = DecodeDataURI("data:image/png,raw")
	assert.ErrorIs(t, err, ErrInvalidData)

	mime, data, err := DecodeDataURI(EncodeDataURI("image/png", []byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

// withDimensions rewrites the IHDR width and height of a PNG, so the header
// announces a raster far larger than the encoded payload.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestProcessLogoRejectsHugeDimensions(t *testing.T) {
	small := encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4)))

	cases := []struct {
		name string
		w, h uint32
	}{
		{"square", 20000, 20000},
		{"wide", 12000, 10},
		{"too_many_pixels", 9000, 9000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ProcessLogo(withDimensions(t, small, tc.w, tc.h))
			assert.ErrorIs(t, err, ErrImageTooLarge)
		})
	}

	logo, err := ProcessLogo(encodePNG(t, solid(800, 600, color.NRGBA{G: 90, A: 255})))
	require.NoError(t, err)
	assert.Equal(t, 500, logo.Width)
}
