package clustering

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-emotion-color/internal/color"
	"github.com/justestif/go-emotion-color/internal/emotion"
)

// MoodConfig holds mood grouping parameters.
type MoodConfig struct {
	NumGroups    int // Number of k-means clusters (default: 3)
	MinGroupSize int // Minimum readings per group (smaller clusters become outliers)
}

// DefaultMoodConfig returns the recommended default configuration.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		NumGroups:    3,
		MinGroupSize: 3,
	}
}

// MoodGroup is a cluster of readings with a similar emotional mix.
type MoodGroup struct {
	Name      string               // "Happy & Love: Jan 15, 2026 - Feb 3, 2026"
	Mood      string               // "Happy & Love"
	Readings  []Reading            // Oldest first
	Centroid  emotion.Distribution // Mean distribution, normalized to sum to 1
	Color     color.Color          // Blend of the centroid
	StartDate time.Time
	EndDate   time.Time
}

// readingObservation wraps a Reading to implement clusters.Observation.
type readingObservation struct {
	reading *Reading
	coords  clusters.Coordinates
}

func (o readingObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o readingObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectMoodGroups clusters readings by distribution and blends each group's
// centroid with deriver. Returns groups sorted by most recent activity and the
// readings that did not fit any group. Readings whose distribution fails
// validation are treated as outliers.
func DetectMoodGroups(readings []Reading, deriver *emotion.Deriver, cfg MoodConfig) ([]MoodGroup, []Reading) {
	if len(readings) == 0 {
		return nil, nil
	}

	if cfg.NumGroups <= 0 {
		cfg.NumGroups = DefaultMoodConfig().NumGroups
	}

	// Separate readings the deriver accepts from the rest
	var valid []*Reading
	var invalid []Reading
	for i := range readings {
		r := &readings[i]
		if err := deriver.Validate(r.Distribution); err != nil {
			invalid = append(invalid, *r)
			continue
		}
		valid = append(valid, r)
	}

	// If fewer valid readings than groups, everything is an outlier
	if len(valid) < cfg.NumGroups {
		return nil, allOutliers(valid, invalid)
	}

	var obs clusters.Observations
	for _, r := range valid {
		obs = append(obs, readingObservation{
			reading: r,
			coords:  clusters.Coordinates(r.Distribution.Vector()),
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumGroups)
	if err != nil {
		slog.Warn("k-means partition failed", "readings", len(valid), "groups", cfg.NumGroups, "error", err)
		return nil, allOutliers(valid, invalid)
	}

	var groups []MoodGroup
	var outliers []Reading

	for _, cluster := range result {
		var members []Reading
		for _, o := range cluster.Observations {
			if ro, ok := o.(readingObservation); ok {
				members = append(members, *ro.reading)
			}
		}

		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinGroupSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortFunc(members, func(a, b Reading) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})

		centroid := centroidOf(members)
		blend, err := deriver.Derive(centroid)
		if err != nil {
			slog.Warn("mood group centroid rejected", "centroid", centroid.String(), "error", err)
			outliers = append(outliers, members...)
			continue
		}

		start := members[0].CreatedAt
		end := members[len(members)-1].CreatedAt
		mood := generateMoodName(centroid)

		groups = append(groups, MoodGroup{
			Name:      formatGroupName(mood, start, end),
			Mood:      mood,
			Readings:  members,
			Centroid:  centroid,
			Color:     blend,
			StartDate: start,
			EndDate:   end,
		})
	}

	outliers = append(outliers, invalid...)

	// Most recent activity first
	slices.SortFunc(groups, func(a, b MoodGroup) int {
		return b.EndDate.Compare(a.EndDate)
	})

	return groups, outliers
}

// centroidOf averages member distributions and renormalizes the mean so it
// sums to exactly 1 before it is handed to the deriver.
func centroidOf(members []Reading) emotion.Distribution {
	sums := make([]float64, emotion.NumCategories)
	for _, m := range members {
		for i, p := range m.Distribution.Vector() {
			sums[i] += p
		}
	}
	var total float64
	for _, s := range sums {
		total += s
	}
	if total > 0 {
		for i := range sums {
			sums[i] /= total
		}
	}
	return emotion.FromVector(sums)
}

func allOutliers(valid []*Reading, invalid []Reading) []Reading {
	var outliers []Reading
	for _, r := range valid {
		outliers = append(outliers, *r)
	}
	return append(outliers, invalid...)
}

// formatGroupName combines a mood name with date range.
func formatGroupName(mood string, start, end time.Time) string {
	const nameFormat = "Jan 2, 2006"
	startStr := start.Format(nameFormat)
	endStr := end.Format(nameFormat)

	if startStr == endStr {
		return fmt.Sprintf("%s: %s", mood, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", mood, startStr, endStr)
}
