// Package clustering groups stored emotion readings into mood groups using
// k-means over their distributions.
package clustering

import (
	"time"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Reading is one classified text with the distribution it produced.
type Reading struct {
	ID           string
	Text         string
	Distribution emotion.Distribution
	CreatedAt    time.Time
}
