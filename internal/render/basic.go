package render

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultBasicBoxSize is the module size in pixels used by Basic when no
// explicit image size is requested.
const DefaultBasicBoxSize = 10

// Basic generates a black on white QR code PNG for content.
// A size <= 0 returns a variable sized image with DefaultBasicBoxSize pixel
// modules; otherwise the image is size x size pixels (or larger, if size is
// too small to fit the code).
func Basic(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = -DefaultBasicBoxSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return png, nil
}

// DataURL wraps PNG data in a data URL.
// Returns a string like "data:image/png;base64,..."
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
