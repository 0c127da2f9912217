package clustering

import (
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-emotion-color/internal/color"
	"github.com/justestif/go-emotion-color/internal/emotion"
)

func TestFormatGroupSummary(t *testing.T) {
	// Helper to create readings
	makeReading := func(text string, daysAgo int) Reading {
		return Reading{
			ID:        text,
			Text:      text,
			CreatedAt: time.Now().AddDate(0, 0, -daysAgo),
		}
	}

	// Helper to create a mood group
	makeGroup := func(mood string, readings []Reading, centroid emotion.Distribution) MoodGroup {
		if len(readings) == 0 {
			return MoodGroup{Mood: mood, Centroid: centroid}
		}
		return MoodGroup{
			Name:      mood,
			Mood:      mood,
			Readings:  readings,
			Centroid:  centroid,
			Color:     color.MustParseHex("#D5415D"),
			StartDate: readings[0].CreatedAt,
			EndDate:   readings[len(readings)-1].CreatedAt,
		}
	}

	defaultCentroid := emotion.Distribution{emotion.Anger: 0.7, emotion.Love: 0.3}

	tests := []struct {
		name           string
		groups         []MoodGroup
		outliers       []Reading
		wantContains   []string
		wantNotContain []string
	}{
		{
			name:     "empty groups no outliers",
			groups:   nil,
			outliers: nil,
			wantContains: []string{
				"No mood groups found from 0 readings",
			},
			wantNotContain: []string{
				"outliers",
			},
		},
		{
			name:     "empty groups with outliers",
			groups:   nil,
			outliers: []Reading{makeReading("meh", 10)},
			wantContains: []string{
				"No mood groups found from 1 readings",
				"(1 outliers skipped)",
			},
		},
		{
			name: "single group with 3 readings",
			groups: []MoodGroup{
				makeGroup("Anger & Love", []Reading{
					makeReading("first", 10),
					makeReading("second", 9),
					makeReading("third", 8),
				}, defaultCentroid),
			},
			wantContains: []string{
				"Found 1 mood group from 3 readings",
				"Group 1: Anger & Love #D5415D",
				"3 readings)",
				`"first"`,
				`"second"`,
				`"third"`,
				"Mix: Anger=70% Love=30%",
			},
			wantNotContain: []string{
				"more",
				"outliers",
			},
		},
		{
			name: "single group with 5 readings shows and N more",
			groups: []MoodGroup{
				makeGroup("Anger", []Reading{
					makeReading("r1", 10),
					makeReading("r2", 9),
					makeReading("r3", 8),
					makeReading("r4", 7),
					makeReading("r5", 6),
				}, defaultCentroid),
			},
			wantContains: []string{
				"Found 1 mood group from 5 readings",
				"... and 2 more",
			},
			wantNotContain: []string{
				`"r4"`,
				`"r5"`,
			},
		},
		{
			name: "multiple groups with outliers",
			groups: []MoodGroup{
				makeGroup("Fear", []Reading{
					makeReading("g1a", 30),
					makeReading("g1b", 29),
				}, defaultCentroid),
				makeGroup("Happy", []Reading{
					makeReading("g2a", 10),
				}, defaultCentroid),
			},
			outliers: []Reading{
				makeReading("Outlier1", 50),
				makeReading("Outlier2", 51),
			},
			wantContains: []string{
				"Found 2 mood groups from 5 readings",
				"(2 outliers skipped)",
				"Group 1: Fear",
				"Group 2: Happy",
				"1 reading)",
			},
			wantNotContain: []string{
				"Outlier", // Outliers should not be listed
			},
		},
		{
			name: "long text is truncated",
			groups: []MoodGroup{
				makeGroup("Sadness", []Reading{
					makeReading(strings.Repeat("x", 80), 1),
				}, defaultCentroid),
			},
			wantContains: []string{
				`"` + strings.Repeat("x", 57) + `..."`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatGroupSummary(tt.groups, tt.outliers)

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatGroupSummary() missing expected content %q\nGot:\n%s", want, got)
				}
			}

			for _, notWant := range tt.wantNotContain {
				if strings.Contains(got, notWant) {
					t.Errorf("FormatGroupSummary() contains unexpected content %q\nGot:\n%s", notWant, got)
				}
			}
		})
	}
}
