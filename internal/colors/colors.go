// Package colors resolves user supplied colour strings.
package colors

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned when a string is not a known name or colour literal.
var ErrInvalidColor = errors.New("invalid color")

// Parse resolves a colour name ("black", "SteelBlue"), a hex literal
// ("#fff", "#FF5733") or an rgb() literal ("rgb(255, 87, 51)").
// The result is always opaque.
func Parse(s string) (color.NRGBA, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return color.NRGBA{}, fmt.Errorf("%w: empty string", ErrInvalidColor)
	}

	switch {
	case strings.HasPrefix(in, "#"):
		return parseHex(in, s)
	case strings.HasPrefix(in, "rgb(") && strings.HasSuffix(in, ")"):
		return parseRGBFunc(in, s)
	}

	if c, ok := colornames.Map[in]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseHex(in, orig string) (color.NRGBA, error) {
	if len(in) != 4 && len(in) != 7 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
	}
	for _, r := range in[1:] {
		if !isHexDigit(r) {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
		}
	}

	c, err := colorful.Hex(in)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, orig, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

func parseRGBFunc(in, orig string) (color.NRGBA, error) {
	parts := strings.Split(in[len("rgb("):len(in)-1], ",")
	if len(parts) != 3 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, orig)
	}

	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q: channel %d out of range", ErrInvalidColor, orig, i)
		}
		ch[i] = uint8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}
