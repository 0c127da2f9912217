package emotion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/justestif/go-emotion-color/internal/color"
)

// ErrIncompletePalette is returned when a palette does not define every category.
var ErrIncompletePalette = errors.New("palette must define all six categories")

// Palette maps every category to its representative color. It is a value
// type; copies share nothing and there is no way to modify one after
// construction.
type Palette struct {
	colors [numCategories]color.Color
}

// DefaultPalette returns the built-in palette. Green is deliberately absent.
func DefaultPalette() Palette {
	return Palette{colors: [numCategories]color.Color{
		Happy:    color.MustParseHex("#FF8200"), // vibrant orange
		Sadness:  color.MustParseHex("#001A72"), // deep blue
		Anger:    color.MustParseHex("#C8102E"), // bright red
		Fear:     color.MustParseHex("#5F259F"), // blue purple
		Love:     color.MustParseHex("#F5B6CD"), // light pink
		Surprise: color.MustParseHex("#FFCD00"), // bright yellow
	}}
}

// NewPalette builds a palette from an explicit table covering all categories.
func NewPalette(colors map[Category]color.Color) (Palette, error) {
	var p Palette
	for _, c := range Categories() {
		col, ok := colors[c]
		if !ok {
			return Palette{}, fmt.Errorf("%w: missing %s", ErrIncompletePalette, c)
		}
		p.colors[c] = col
	}
	for c := range colors {
		if !c.Valid() {
			return Palette{}, &UnknownCategoryError{Name: c.String()}
		}
	}
	return p, nil
}

// ColorOf returns the palette color for c.
func (p Palette) ColorOf(c Category) (color.Color, error) {
	if !c.Valid() {
		return color.Color{}, &UnknownCategoryError{Name: c.String()}
	}
	return p.colors[c], nil
}

// Entries returns the palette as a map keyed by category.
func (p Palette) Entries() map[Category]color.Color {
	m := make(map[Category]color.Color, numCategories)
	for _, c := range Categories() {
		m[c] = p.colors[c]
	}
	return m
}

// paletteFile is the TOML layout accepted by LoadPalette:
//
//	[palette]
//	happy = "#FF8200"
//	sadness = "#001A72"
type paletteFile struct {
	Palette map[string]string `toml:"palette"`
}

// LoadPalette reads a palette from TOML.
func LoadPalette(r io.Reader) (Palette, error) {
	var f paletteFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return Palette{}, fmt.Errorf("decoding palette: %w", err)
	}

	names := make([]string, 0, len(f.Palette))
	for name := range f.Palette {
		names = append(names, name)
	}
	sort.Strings(names)

	colors := make(map[Category]color.Color, len(f.Palette))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return Palette{}, err
		}
		col, err := color.ParseHex(f.Palette[name])
		if err != nil {
			return Palette{}, fmt.Errorf("palette entry %s: %w", name, err)
		}
		colors[c] = col
	}
	return NewPalette(colors)
}

// LoadPaletteFile reads a palette from a TOML file on disk.
func LoadPaletteFile(path string) (Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return Palette{}, fmt.Errorf("opening palette file: %w", err)
	}
	defer f.Close()
	return LoadPalette(f)
}
