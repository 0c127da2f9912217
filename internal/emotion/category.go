// Package emotion blends a probability distribution over emotion categories
// into a single display color.
package emotion

import "strings"

// Category is one of the six emotions the classifier can produce.
type Category uint8

// Categories in canonical order. Blending accumulates in this order.
const (
	Happy Category = iota
	Sadness
	Anger
	Fear
	Love
	Surprise

	numCategories
)

// NumCategories is the size of the closed category set.
const NumCategories = int(numCategories)

var categoryNames = [numCategories]string{
	Happy:    "happy",
	Sadness:  "sadness",
	Anger:    "anger",
	Fear:     "fear",
	Love:     "love",
	Surprise: "surprise",
}

// Categories returns all categories in canonical order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Valid reports whether c is one of the six defined categories.
func (c Category) Valid() bool {
	return c < numCategories
}

// String returns the lowercase label used in training data and on the wire.
func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c]
}

// Title returns the label with its first letter capitalized, e.g. "Sadness".
func (c Category) Title() string {
	s := c.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseCategory converts a raw label into a Category. Matching is exact:
// labels are expected in the lowercase form the classifier emits.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, &UnknownCategoryError{Name: s}
}

// MarshalText implements encoding.TextMarshaler so categories can key JSON maps.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &UnknownCategoryError{Name: c.String()}
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
