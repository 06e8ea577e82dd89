// Package contrast decides whether a fill/background colour pair is legible
// enough to be used for the modules of a QR code.
package contrast

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// Contrast ratio bounds. MaxRatio is black on white: the weights sum to
// 1.01, so white has luminance 1.01 and the ratio is 1.06/0.05.
const (
	DefaultMinRatio = 4.5
	MinRatio        = 1.0
	MaxRatio        = 21.2
)

// Channel linearisation constants for sRGB.
const (
	gammaBreakpoint = 0.03928
	lowGammaDivisor = 12.92
	gammaOffset     = 0.055
	gammaDivisor    = 1.055
	gammaExponent   = 2.4

	redWeight   = 0.2126
	greenWeight = 0.7152
	blueWeight  = 0.0822

	// Added to both luminances so pure black does not divide by zero.
	flare = 0.05
)

// Color is an opaque sRGB colour with 8-bit channels.
type Color struct {
	R, G, B uint8
}

// RGB returns a Color from its channel values.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColor converts any image colour to a Color, ignoring alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// RGBA returns the colour as a fully opaque color.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// String formats the colour as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func linearize(v uint8) float64 {
	c := float64(v) / 255.0
	if c <= gammaBreakpoint {
		return c / lowGammaDivisor
	}
	return math.Pow((c+gammaOffset)/gammaDivisor, gammaExponent)
}

// RelativeLuminance returns the relative luminance of c in [0, 1.01].
func RelativeLuminance(c Color) float64 {
	return redWeight*linearize(c.R) + greenWeight*linearize(c.G) + blueWeight*linearize(c.B)
}

// Ratio returns the contrast ratio between a and b, lighter over darker.
// The result is in [MinRatio, MaxRatio] and does not depend on argument order.
func Ratio(a, b Color) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	return ratio(math.Max(la, lb), math.Min(la, lb))
}

func ratio(lighter, darker float64) float64 {
	return (lighter + flare) / (darker + flare)
}

// Kind classifies a rejected colour pair.
type Kind int

const (
	// FillNotDarker means the fill is lighter than the background.
	FillNotDarker Kind = iota + 1
	// InsufficientContrast means the pair is ordered correctly but too close.
	InsufficientContrast
)

// String returns the snake_case name used in API responses and metrics.
func (k Kind) String() string {
	switch k {
	case FillNotDarker:
		return "fill_not_darker"
	case InsufficientContrast:
		return "insufficient_contrast"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is; *Error unwraps to one of these.
var (
	ErrFillNotDarker        = errors.New("fill color must be darker than the background color")
	ErrInsufficientContrast = errors.New("insufficient contrast")
)

// Error describes a rejected colour pair. Ratio is zero for FillNotDarker
// because no ratio is computed once the ordering is violated.
type Error struct {
	Kind                Kind
	Ratio               float64
	MinRatio            float64
	FillLuminance       float64
	BackgroundLuminance float64
}

func (e *Error) Error() string {
	switch e.Kind {
	case FillNotDarker:
		return fmt.Sprintf("%s (fill luminance %.2f, background luminance %.2f), minimum %g:1",
			ErrFillNotDarker, e.FillLuminance, e.BackgroundLuminance, e.MinRatio)
	case InsufficientContrast:
		return fmt.Sprintf("contrast ratio is %.2f:1, must be at least %g:1", e.Ratio, e.MinRatio)
	default:
		return "contrast check failed"
	}
}

// Unwrap returns the sentinel matching e.Kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case FillNotDarker:
		return ErrFillNotDarker
	case InsufficientContrast:
		return ErrInsufficientContrast
	default:
		return nil
	}
}

// RoundedRatio returns Ratio rounded to two decimal places.
func (e *Error) RoundedRatio() float64 {
	return math.Round(e.Ratio*100) / 100
}

// Validator checks colour pairs against a minimum contrast ratio.
// The zero value uses DefaultMinRatio. It is safe for concurrent use.
type Validator struct {
	minRatio float64
}

// NewValidator returns a Validator requiring at least minRatio.
func NewValidator(minRatio float64) (Validator, error) {
	if math.IsNaN(minRatio) || minRatio < MinRatio || minRatio > MaxRatio {
		return Validator{}, fmt.Errorf("min contrast ratio must be between %g and %g, got %g", MinRatio, MaxRatio, minRatio)
	}
	return Validator{minRatio: minRatio}, nil
}

// MinRatio returns the threshold a pair must reach to be accepted.
func (v Validator) MinRatio() float64 {
	if v.minRatio == 0 {
		return DefaultMinRatio
	}
	return v.minRatio
}

// Check returns nil when fill on background is acceptable for QR modules,
// otherwise a *Error. The threshold is inclusive.
func (v Validator) Check(fill, background Color) error {
	lumFill := RelativeLuminance(fill)
	lumBack := RelativeLuminance(background)

	if lumFill > lumBack {
		return &Error{
			Kind:                FillNotDarker,
			MinRatio:            v.MinRatio(),
			FillLuminance:       lumFill,
			BackgroundLuminance: lumBack,
		}
	}

	r := ratio(lumBack, lumFill)
	if r < v.MinRatio() {
		return &Error{
			Kind:                InsufficientContrast,
			Ratio:               r,
			MinRatio:            v.MinRatio(),
			FillLuminance:       lumFill,
			BackgroundLuminance: lumBack,
		}
	}
	return nil
}
