// Package render draws QR codes: plain ones, and styled ones with custom
// module shapes, colours and a centred logo.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/skip2/go-qrcode"
)

// Defaults for styled rendering.
const (
	DefaultBoxSize   = 10
	DefaultBorder    = 4
	DefaultLogoScale = 0.25

	MaxBoxSize   = 100
	MaxBorder    = 20
	MaxLogoScale = 0.4
)

var (
	// ErrEmptyContent is returned when there is nothing to encode.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrEncode wraps failures of the QR encoder, e.g. content too long.
	ErrEncode = errors.New("encode QR code")
)

// Options configures a styled render. Start from DefaultOptions.
type Options struct {
	Content    string
	Fill       color.Color
	Background color.Color
	Style      ModuleStyle
	Level      qrcode.RecoveryLevel

	// BoxSize is the edge of one module in pixels.
	BoxSize int
	// Border is the quiet zone width in modules.
	Border int

	// Logo, if set, is scaled to fit LogoScale of the image width and
	// composited over the centre.
	Logo      image.Image
	LogoScale float64
}

// DefaultOptions returns black on white square modules at the highest
// recovery level, which leaves room for a logo.
func DefaultOptions(content string) Options {
	return Options{
		Content:    content,
		Fill:       color.Black,
		Background: color.White,
		Style:      StyleSquare,
		Level:      qrcode.Highest,
		BoxSize:    DefaultBoxSize,
		Border:     DefaultBorder,
		LogoScale:  DefaultLogoScale,
	}
}

// Validate checks the geometry settings.
func (o Options) Validate() error {
	if o.Content == "" {
		return ErrEmptyContent
	}
	if o.BoxSize < 1 || o.BoxSize > MaxBoxSize {
		return fmt.Errorf("box size must be between 1 and %d, got %d", MaxBoxSize, o.BoxSize)
	}
	if o.Border < 0 || o.Border > MaxBorder {
		return fmt.Errorf("border must be between 0 and %d, got %d", MaxBorder, o.Border)
	}
	if o.Logo != nil && (o.LogoScale <= 0 || o.LogoScale > MaxLogoScale) {
		return fmt.Errorf("logo scale must be in (0, %g], got %g", MaxLogoScale, o.LogoScale)
	}
	if _, err := o.Style.drawer(); err != nil {
		return err
	}
	return nil
}

// Render draws the QR code described by opts.
func Render(opts Options) (image.Image, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	draw, _ := opts.Style.drawer()

	q, err := qrcode.New(opts.Content, opts.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	q.DisableBorder = true
	m := matrix(q.Bitmap())

	fill, back := opts.Fill, opts.Background
	if fill == nil {
		fill = color.Black
	}
	if back == nil {
		back = color.White
	}

	side := (len(m) + 2*opts.Border) * opts.BoxSize
	dc := gg.NewContext(side, side)
	dc.SetColor(back)
	dc.Clear()

	dc.SetColor(fill)
	box := float64(opts.BoxSize)
	for y := range m {
		for x := range m[y] {
			if !m[y][x] {
				continue
			}
			c := cell{
				x:   float64(x+opts.Border) * box,
				y:   float64(y+opts.Border) * box,
				box: box,
			}
			draw(dc, c, m.neighbours(x, y))
			dc.Fill()
		}
	}

	if opts.Logo != nil {
		overlayLogo(dc, opts.Logo, opts.LogoScale)
	}

	return dc.Image(), nil
}

// overlayLogo fits logo into a square of scale*width and alpha-composites it
// over the centre of dc. The logo is never upscaled.
func overlayLogo(dc *gg.Context, logo image.Image, scale float64) {
	maxSide := uint(float64(dc.Width()) * scale)
	if maxSide == 0 {
		return
	}
	thumb := resize.Thumbnail(maxSide, maxSide, logo, resize.Lanczos3)
	b := thumb.Bounds()
	x := (dc.Width() - b.Dx()) / 2
	y := (dc.Height() - b.Dy()) / 2
	dc.DrawImage(thumb, x, y)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type matrix [][]bool

func (m matrix) dark(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x]
}

func (m matrix) neighbours(x, y int) neighbours {
	return neighbours{
		up:    m.dark(x, y-1),
		down:  m.dark(x, y+1),
		left:  m.dark(x-1, y),
		right: m.dark(x+1, y),
	}
}
