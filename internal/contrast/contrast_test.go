package contrast

import (
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = RGB(0, 0, 0)
	white = RGB(255, 255, 255)
)

func TestRelativeLuminance(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  float64
	}{
		{name: "black", color: black, want: 0},
		{name: "white", color: white, want: 1.01},
		{name: "pure red", color: RGB(255, 0, 0), want: 0.2126},
		{name: "pure green", color: RGB(0, 255, 0), want: 0.7152},
		{name: "pure blue", color: RGB(0, 0, 255), want: 0.0822},
		{name: "mid gray", color: RGB(119, 119, 119), want: 0.184475 * 1.01},
		// 10/255 is below the gamma breakpoint, so the linear segment applies
		{name: "near black", color: RGB(10, 10, 10), want: 10.0 / 255.0 / 12.92 * 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RelativeLuminance(tt.color), 1e-5)
		})
	}
}

func TestRelativeLuminance_MonotonicPerChannel(t *testing.T) {
	for v := 1; v <= 255; v++ {
		prev, cur := uint8(v-1), uint8(v)
		assert.Less(t, RelativeLuminance(RGB(prev, 0, 0)), RelativeLuminance(RGB(cur, 0, 0)), "red %d", v)
		assert.Less(t, RelativeLuminance(RGB(0, prev, 0)), RelativeLuminance(RGB(0, cur, 0)), "green %d", v)
		assert.Less(t, RelativeLuminance(RGB(0, 0, prev)), RelativeLuminance(RGB(0, 0, cur)), "blue %d", v)
	}
}

func TestRelativeLuminance_GreenWeighsMost(t *testing.T) {
	r := RelativeLuminance(RGB(200, 0, 0))
	g := RelativeLuminance(RGB(0, 200, 0))
	b := RelativeLuminance(RGB(0, 0, 200))
	assert.Greater(t, g, r)
	assert.Greater(t, r, b)
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 21.2, Ratio(black, white), 1e-9)
	assert.InDelta(t, 21.2, Ratio(white, black), 1e-9)
	assert.InDelta(t, MaxRatio, Ratio(black, white), 1e-9)
	assert.Equal(t, 1.0, Ratio(RGB(12, 34, 56), RGB(12, 34, 56)))
}

func TestValidator_Extremes(t *testing.T) {
	v := Validator{}
	require.NoError(t, v.Check(black, white))
}

func TestValidator_Inversion(t *testing.T) {
	err := Validator{}.Check(white, black)
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, FillNotDarker, cerr.Kind)
	assert.Zero(t, cerr.Ratio, "no ratio is computed for an inverted pair")
	assert.True(t, errors.Is(err, ErrFillNotDarker))
	assert.False(t, errors.Is(err, ErrInsufficientContrast))
	assert.Contains(t, err.Error(), "fill color must be darker than the background color")
	assert.Contains(t, err.Error(), "minimum 4.5:1")
}

func TestValidator_BlueBackground(t *testing.T) {
	// olive (80,80,0) has luminance 0.0744, just under pure blue's 0.0822
	fill, back := RGB(80, 80, 0), RGB(0, 0, 255)
	assert.InDelta(t, 0.0822, RelativeLuminance(back), 1e-9)
	assert.Less(t, RelativeLuminance(fill), RelativeLuminance(back))

	err := Validator{}.Check(fill, back)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, InsufficientContrast, cerr.Kind)
	assert.Equal(t, 1.06, cerr.RoundedRatio())
}

func TestValidator_IdentityRejected(t *testing.T) {
	colors := []Color{black, white, RGB(119, 119, 119), RGB(255, 87, 51), RGB(0, 0, 128)}
	thresholds := []float64{1.01, 3, DefaultMinRatio, 7, 21}

	for _, c := range colors {
		for _, th := range thresholds {
			v, err := NewValidator(th)
			require.NoError(t, err)

			err = v.Check(c, c)
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "color %s threshold %g", c, th)
			assert.Equal(t, InsufficientContrast, cerr.Kind)
			assert.Equal(t, 1.0, cerr.RoundedRatio())
		}
	}
}

func TestValidator_MidGrayGolden(t *testing.T) {
	err := Validator{}.Check(RGB(119, 119, 119), white)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, InsufficientContrast, cerr.Kind)
	assert.Equal(t, 4.49, cerr.RoundedRatio())
	assert.Equal(t, DefaultMinRatio, cerr.MinRatio)
	assert.Equal(t, "contrast ratio is 4.49:1, must be at least 4.5:1", err.Error())
	assert.True(t, errors.Is(err, ErrInsufficientContrast))

	// one step darker clears the default threshold
	assert.NoError(t, Validator{}.Check(RGB(118, 118, 118), white))
}

func TestValidator_ThresholdInclusive(t *testing.T) {
	fill, back := RGB(118, 118, 118), white
	exact := Ratio(fill, back)

	v, err := NewValidator(exact)
	require.NoError(t, err)
	assert.NoError(t, v.Check(fill, back))

	stricter, err := NewValidator(math.Nextafter(exact, MaxRatio))
	require.NoError(t, err)
	assert.ErrorIs(t, stricter.Check(fill, back), ErrInsufficientContrast)
}

func TestValidator_DarkerFillNeverRejectsAccepted(t *testing.T) {
	backgrounds := []Color{white, RGB(240, 230, 140), RGB(173, 216, 230)}
	v := Validator{}

	for _, back := range backgrounds {
		accepted := false
		// walk from light to dark; once accepted, darker fills must stay accepted
		for i := 255; i >= 0; i-- {
			fill := RGB(uint8(i), uint8(i/2), uint8(i/3))
			err := v.Check(fill, back)
			if accepted {
				assert.NoError(t, err, "fill %s on %s", fill, back)
			}
			if err == nil {
				accepted = true
			}
		}
		assert.True(t, accepted, "some fill must be accepted on %s", back)
	}
}

func TestValidator_Deterministic(t *testing.T) {
	fill, back := RGB(255, 87, 51), white
	first := Validator{}.Check(fill, back)
	require.Error(t, first)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, first, Validator{}.Check(fill, back))
			}
		}()
	}
	wg.Wait()
}

func TestNewValidator(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		wantErr bool
	}{
		{name: "default", ratio: DefaultMinRatio},
		{name: "lower bound", ratio: 1},
		{name: "upper bound", ratio: MaxRatio},
		{name: "twenty one", ratio: 21},
		{name: "below one", ratio: 0.5, wantErr: true},
		{name: "zero", ratio: 0, wantErr: true},
		{name: "above max", ratio: 21.5, wantErr: true},
		{name: "NaN", ratio: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewValidator(tt.ratio)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ratio, v.MinRatio())
		})
	}
}

func TestValidator_ZeroValueUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultMinRatio, Validator{}.MinRatio())
}

func TestFromColor(t *testing.T) {
	assert.Equal(t, RGB(255, 87, 51), FromColor(color.RGBA{R: 255, G: 87, B: 51, A: 255}))
	assert.Equal(t, RGB(255, 87, 51), FromColor(color.NRGBA{R: 255, G: 87, B: 51, A: 255}))
	assert.Equal(t, "#ff5733", RGB(255, 87, 51).String())
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, RGB(1, 2, 3).RGBA())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "fill_not_darker", FillNotDarker.String())
	assert.Equal(t, "insufficient_contrast", InsufficientContrast.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
