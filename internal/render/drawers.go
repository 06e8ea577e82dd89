package render

import (
	"fmt"
	"strings"

	"github.com/fogleman/gg"
)

// ModuleStyle selects how a single dark module is drawn.
type ModuleStyle string

const (
	StyleSquare  ModuleStyle = "square"
	StyleRounded ModuleStyle = "rounded"
	StyleDot     ModuleStyle = "dot"
)

// Styles lists the supported module styles.
var Styles = []ModuleStyle{StyleSquare, StyleRounded, StyleDot}

// gappedRatio is the share of the box a square module covers.
const gappedRatio = 0.8

// ParseModuleStyle maps a style name to a ModuleStyle. Empty means square.
func ParseModuleStyle(s string) (ModuleStyle, error) {
	style := ModuleStyle(strings.ToLower(strings.TrimSpace(s)))
	if style == "" {
		return StyleSquare, nil
	}
	if _, err := style.drawer(); err != nil {
		return "", err
	}
	return style, nil
}

type cell struct {
	x, y, box float64
}

type neighbours struct {
	up, down, left, right bool
}

// drawFunc adds the path for one module to dc; the caller fills it.
type drawFunc func(dc *gg.Context, c cell, n neighbours)

func (s ModuleStyle) drawer() (drawFunc, error) {
	switch s {
	case StyleSquare:
		return drawGappedSquare, nil
	case StyleRounded:
		return drawRounded, nil
	case StyleDot:
		return drawDot, nil
	default:
		return nil, fmt.Errorf("unknown module style %q (want one of %v)", string(s), Styles)
	}
}

func drawGappedSquare(dc *gg.Context, c cell, _ neighbours) {
	side := c.box * gappedRatio
	off := (c.box - side) / 2
	dc.DrawRectangle(c.x+off, c.y+off, side, side)
}

func drawDot(dc *gg.Context, c cell, _ neighbours) {
	r := c.box / 2
	dc.DrawCircle(c.x+r, c.y+r, r)
}

// drawRounded draws a disc and bridges it to every dark neighbour, so only
// corners with no adjacent module end up rounded.
func drawRounded(dc *gg.Context, c cell, n neighbours) {
	h := c.box / 2
	cx, cy := c.x+h, c.y+h
	dc.DrawCircle(cx, cy, h)
	if n.right {
		dc.DrawRectangle(cx, c.y, h, c.box)
	}
	if n.left {
		dc.DrawRectangle(c.x, c.y, h, c.box)
	}
	if n.up {
		dc.DrawRectangle(c.x, c.y, c.box, h)
	}
	if n.down {
		dc.DrawRectangle(c.x, cy, c.box, h)
	}
}
