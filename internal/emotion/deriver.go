package emotion

import (
	"math"

	"github.com/justestif/go-emotion-color/internal/color"
)

// DefaultTolerance is the maximum allowed deviation of a distribution's sum from 1.0.
const DefaultTolerance = 1e-6

// Deriver blends a Distribution into a single color using a fixed palette.
// A Deriver holds no mutable state and is safe for concurrent use.
type Deriver struct {
	palette   Palette
	tolerance float64
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithTolerance sets the allowed deviation of a distribution's sum from 1.0.
func WithTolerance(tol float64) Option {
	return func(d *Deriver) {
		if tol > 0 {
			d.tolerance = tol
		}
	}
}

// NewDeriver creates a Deriver for the given palette.
func NewDeriver(palette Palette, opts ...Option) *Deriver {
	d := &Deriver{
		palette:   palette,
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Palette returns the palette the deriver blends with.
func (d *Deriver) Palette() Palette {
	return d.palette
}

// Tolerance returns the configured sum tolerance.
func (d *Deriver) Tolerance() float64 {
	return d.tolerance
}

// Validate checks dist without blending it.
//
// Partial distributions are accepted: absent categories weigh zero, and the
// categories that are present must still sum to 1.0.
func (d *Deriver) Validate(dist Distribution) error {
	for _, c := range sortedKeys(dist) {
		if _, err := d.palette.ColorOf(c); err != nil {
			return err
		}
	}
	for _, c := range sortedKeys(dist) {
		p := dist[c]
		if !(p >= 0 && p <= 1) {
			return &InvalidProbabilityError{Category: c, Value: p}
		}
	}
	sum := dist.Sum()
	if math.Abs(sum-1) > d.tolerance {
		return &DistributionSumError{Sum: sum, Tolerance: d.tolerance}
	}
	return nil
}

// Derive blends the palette colors weighted by dist.
//
// Channels are accumulated in float64 and then TRUNCATED toward zero, not
// rounded: a red channel of 199.99 becomes 199 (C7), never 200 (C8).
func (d *Deriver) Derive(dist Distribution) (color.Color, error) {
	if err := d.Validate(dist); err != nil {
		return color.Color{}, err
	}

	var r, g, b float64
	for _, c := range Categories() {
		w, ok := dist[c]
		if !ok {
			continue
		}
		col := d.palette.colors[c]
		// Explicit conversions keep each product rounded before the add so
		// the compiler cannot fuse them.
		r += float64(w * float64(col.R))
		g += float64(w * float64(col.G))
		b += float64(w * float64(col.B))
	}

	return color.Color{
		R: color.ClampChannel(r),
		G: color.ClampChannel(g),
		B: color.ClampChannel(b),
	}, nil
}

// DeriveRaw parses classifier output keyed by label and derives its color.
func (d *Deriver) DeriveRaw(raw map[string]float64) (color.Color, error) {
	dist, err := ParseDistribution(raw)
	if err != nil {
		return color.Color{}, err
	}
	return d.Derive(dist)
}

// sortedKeys returns any out-of-range keys of dist first, then the valid
// categories in canonical order.
func sortedKeys(dist Distribution) []Category {
	keys := make([]Category, 0, len(dist))
	var invalid []Category
	for _, c := range Categories() {
		if _, ok := dist[c]; ok {
			keys = append(keys, c)
		}
	}
	for c := range dist {
		if !c.Valid() {
			invalid = append(invalid, c)
		}
	}
	return append(invalid, keys...)
}
