package color

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	// DefaultSwatchWidth is the number of cells in a rendered swatch.
	DefaultSwatchWidth = 10

	// labelLightness is the Lab L above which the swatch label is drawn dark.
	labelLightness = 0.6
)

// Swatch renders colors as terminal blocks.
type Swatch struct {
	renderer *lipgloss.Renderer
	width    int
}

// SwatchOption configures a Swatch.
type SwatchOption func(*Swatch)

// WithWidth sets the swatch width in cells.
func WithWidth(n int) SwatchOption {
	return func(s *Swatch) {
		if n > 0 {
			s.width = n
		}
	}
}

// WithProfile overrides the terminal color profile. By default swatches are
// rendered in true color regardless of what the output supports.
func WithProfile(p termenv.Profile) SwatchOption {
	return func(s *Swatch) {
		s.renderer.SetColorProfile(p)
	}
}

// NewSwatch creates a Swatch writing escape sequences suitable for w.
func NewSwatch(w io.Writer, opts ...SwatchOption) *Swatch {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)
	s := &Swatch{
		renderer: r,
		width:    DefaultSwatchWidth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Block returns a block of background-colored cells.
func (s *Swatch) Block(c Color) string {
	return s.renderer.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Render(strings.Repeat(" ", s.width))
}

// Label returns the hex text drawn on top of the color, in black or white
// depending on the color's lightness.
func (s *Swatch) Label(c Color) string {
	return s.renderer.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Foreground(lipgloss.Color(LabelColor(c).Hex())).
		Padding(0, 1).
		Render(c.Hex())
}

// Render returns the two-line display used by the interactive prompt.
func (s *Swatch) Render(c Color) string {
	return fmt.Sprintf("Derived Color: %s\nHex format: %s", s.Block(c), c.Hex())
}

// RenderHex renders a color given in canonical #RRGGBB form. Unlike
// ParseHex, lowercase digits are rejected.
func (s *Swatch) RenderHex(hex string) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	if c.Hex() != hex {
		return "", fmt.Errorf("%w: %q is not uppercase", ErrInvalidHex, hex)
	}
	return s.Render(c), nil
}

// LabelColor returns black for light colors and white for dark ones.
func LabelColor(c Color) Color {
	l, _, _ := c.Colorful().Lab()
	if l > labelLightness {
		return Color{}
	}
	return Color{R: 255, G: 255, B: 255}
}
