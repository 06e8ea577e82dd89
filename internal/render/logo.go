package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Logo formats accepted for upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxLogoDimension bounds the width and height of a decoded logo.
const MaxLogoDimension = 4096

// ErrInvalidLogo is returned for logos that cannot be decoded or are too large.
var ErrInvalidLogo = errors.New("invalid logo image")

// DecodeLogo reads a PNG, JPEG, GIF, BMP, TIFF or WebP image. The header is
// checked before the pixels are decoded so oversized images are rejected early.
func DecodeLogo(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxLogoDimension || cfg.Height > MaxLogoDimension {
		return nil, fmt.Errorf("%w: %s is %dx%d, max %dx%d",
			ErrInvalidLogo, format, cfg.Width, cfg.Height, MaxLogoDimension, MaxLogoDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	return img, nil
}
