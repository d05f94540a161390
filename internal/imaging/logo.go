// Package imaging normalises uploaded logos into small data URIs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	MaxLogoWidth    = 500
	MaxUploadBytes  = 8 << 20
	MaxSourceSide   = 10000
	MaxSourcePixels = 40_000_000
	JPEGQuality     = 85

	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

var (
	ErrEmptyImage    = errors.New("empty_image")
	ErrImageTooLarge = errors.New("image_too_large")
	ErrUnsupported   = errors.New("unsupported_image")
	ErrInvalidData   = errors.New("invalid_data_uri")
)

type Logo struct {
	DataURI string
	Mime    string
	Width   int
	Height  int
}

// ProcessLogo decodes a PNG, JPEG, GIF or WebP image, shrinks it to at most
// MaxLogoWidth pixels wide keeping the aspect ratio, and re-encodes it. Images
// with any transparent pixel stay PNG; everything else becomes JPEG.
func ProcessLogo(data []byte) (Logo, error) {
	if len(data) == 0 {
		return Logo{}, ErrEmptyImage
	}
	if len(data) > MaxUploadBytes {
		return Logo{}, ErrImageTooLarge
	}

	if err := checkDimensions(data); err != nil {
		return Logo{}, err
	}
	src, err := decode(data)
	if err != nil {
		return Logo{}, err
	}
	transparent := HasTransparency(src)
	img := Downscale(src, MaxLogoWidth)

	var out bytes.Buffer
	mime := MimeJPEG
	if transparent {
		mime = MimePNG
		err = png.Encode(&out, img)
	} else {
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return Logo{}, err
	}

	b := img.Bounds()
	return Logo{
		DataURI: EncodeDataURI(mime, out.Bytes()),
		Mime:    mime,
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}

// Downscale returns src untouched when it already fits within maxWidth.
func Downscale(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, stddraw.Src, nil)
	return dst
}

func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its mime type and payload.
func DecodeDataURI(value string) (string, []byte, error) {
	raw := strings.TrimSpace(value)
	if !strings.HasPrefix(raw, "data:") {
		return "", nil, ErrInvalidData
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrInvalidData
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidData
	}
	return strings.TrimSuffix(header, ";base64"), data, nil
}

// checkDimensions reads only the image header so oversized rasters are
// rejected before any pixel buffer is allocated.
func checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return ErrUnsupported
		}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnsupported
	}
	if cfg.Width > MaxSourceSide || cfg.Height > MaxSourceSide || cfg.Width*cfg.Height > MaxSourcePixels {
		return ErrImageTooLarge
	}
	return nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return decoded, nil
	}
	return nil, ErrUnsupported
}
