package emotion

import (
	"fmt"
	"sort"
	"strings"
)

// Distribution assigns a probability to each category. Categories that are
// absent carry zero weight.
type Distribution map[Category]float64

// ParseDistribution converts classifier output keyed by label into a
// Distribution. Labels are resolved in sorted order so the first unknown label
// reported is stable.
func ParseDistribution(raw map[string]float64) (Distribution, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	d := make(Distribution, len(raw))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		d[c] = raw[name]
	}
	return d, nil
}

// Raw returns the distribution keyed by label.
func (d Distribution) Raw() map[string]float64 {
	raw := make(map[string]float64, len(d))
	for c, p := range d {
		raw[c.String()] = p
	}
	return raw
}

// Sum returns the total weight, accumulated in canonical order.
func (d Distribution) Sum() float64 {
	var sum float64
	for _, c := range Categories() {
		sum += d[c]
	}
	return sum
}

// Vector returns the weights as a fixed-order slice, one entry per category.
func (d Distribution) Vector() []float64 {
	v := make([]float64, numCategories)
	for _, c := range Categories() {
		v[c] = d[c]
	}
	return v
}

// FromVector builds a Distribution from a canonical-order slice. Extra
// entries are ignored; zero entries are omitted.
func FromVector(v []float64) Distribution {
	d := make(Distribution, numCategories)
	for i := 0; i < len(v) && i < NumCategories; i++ {
		if v[i] != 0 {
			d[Category(i)] = v[i]
		}
	}
	return d
}

// Dominant returns the categories sorted by descending weight. Ties keep
// canonical order.
func (d Distribution) Dominant() []Category {
	cats := make([]Category, 0, len(d))
	for _, c := range Categories() {
		if _, ok := d[c]; ok {
			cats = append(cats, c)
		}
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return d[cats[i]] > d[cats[j]]
	})
	return cats
}

// String formats the distribution in canonical order, e.g.
// "happy=0.50 sadness=0.50".
func (d Distribution) String() string {
	var parts []string
	for _, c := range Categories() {
		if p, ok := d[c]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.2f", c, p))
		}
	}
	return strings.Join(parts, " ")
}
