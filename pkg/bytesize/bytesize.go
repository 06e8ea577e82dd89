// Package bytesize parses and formats human readable byte sizes.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Binary size units.
const (
	B  int64 = 1
	KB       = 1024 * B
	MB       = 1024 * KB
	GB       = 1024 * MB
)

var units = map[string]int64{
	"":   B,
	"b":  B,
	"k":  KB,
	"kb": KB,
	"m":  MB,
	"mb": MB,
	"g":  GB,
	"gb": GB,
}

// Parse converts strings like "512KB", "1.5 MB" or "1024" into bytes.
// Units are binary and case-insensitive; a bare number is bytes.
func Parse(s string) (int64, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("empty size")
	}

	i := strings.IndexFunc(in, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	num, unit := in, ""
	if i >= 0 {
		num, unit = in[:i], strings.TrimSpace(in[i:])
	}
	if num == "" {
		return 0, fmt.Errorf("invalid size %q: missing number", s)
	}

	mult, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("invalid size %q: unknown unit %q", s, unit)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	n := v * float64(mult)
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return int64(n), nil
}

// Format renders n bytes with the largest unit that keeps the value >= 1.
func Format(n int64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
