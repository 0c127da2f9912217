// Package color provides the exact RGB color value produced by emotion blending
// and its #RRGGBB text form.
package color

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex is returned when a string is not exactly of the form #RRGGBB.
var ErrInvalidHex = errors.New("invalid hex color")

const hexDigits = "0123456789ABCDEF"

// Color is an RGB triple with 8 bits per channel.
type Color struct {
	R, G, B uint8
}

// RGB returns a Color from three channel values.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Hex returns the color as #RRGGBB with uppercase digits.
func (c Color) Hex() string {
	buf := [7]byte{'#'}
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		buf[1+2*i] = hexDigits[v>>4]
		buf[2+2*i] = hexDigits[v&0x0F]
	}
	return string(buf[:])
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// Colorful converts c for use with go-colorful.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// ParseHex parses a #RRGGBB string. Hex digits may be either case; short
// forms and alpha channels are rejected.
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	b, err := hex.DecodeString(s[1:])
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

// MustParseHex is like ParseHex but panics on error. It is intended for
// package-level color tables.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic("MustParseHex: " + err.Error())
	}
	return c
}

// ClampChannel truncates v toward zero and bounds the result to [0, 255].
func ClampChannel(v float64) uint8 {
	switch {
	case v != v: // NaN
		return 0
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
