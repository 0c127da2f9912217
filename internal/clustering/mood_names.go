package clustering

import (
	"strings"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Thresholds used when naming a group from its centroid.
const (
	secondaryShare = 0.25 // a second category this strong joins the name
	mixedShare     = 0.35 // below this, no category dominates
)

// generateMoodName names a centroid by its dominant categories:
//   - "Happy" when one category clearly leads
//   - "Happy & Love" when the runner-up has at least 25%
//   - "Mixed" when nothing reaches 35%
func generateMoodName(centroid emotion.Distribution) string {
	ranked := centroid.Dominant()
	if len(ranked) == 0 {
		return "Mixed"
	}

	top := ranked[0]
	if centroid[top] < mixedShare {
		return "Mixed"
	}

	names := []string{top.Title()}
	if len(ranked) > 1 && centroid[ranked[1]] >= secondaryShare {
		names = append(names, ranked[1].Title())
	}
	return strings.Join(names, " & ")
}

// MoodCategory describes a group for display purposes.
type MoodCategory struct {
	Name        string
	Dominant    emotion.Category
	Share       float64 // Weight of the dominant category
	Description string
}

var moodDescriptions = map[emotion.Category]string{
	emotion.Happy:    "Bright and upbeat - warm oranges lead the mix",
	emotion.Sadness:  "Low and heavy - deep blues pull the color down",
	emotion.Anger:    "Heated and sharp - reds dominate",
	emotion.Fear:     "Uneasy and tense - purples creep in",
	emotion.Love:     "Tender and warm - soft pinks lift the blend",
	emotion.Surprise: "Startled and lively - yellows flash through",
}

// GetMoodCategory returns a detailed mood description for a centroid.
func GetMoodCategory(centroid emotion.Distribution) MoodCategory {
	name := generateMoodName(centroid)

	ranked := centroid.Dominant()
	if len(ranked) == 0 {
		return MoodCategory{Name: name, Description: "No emotional signal"}
	}

	top := ranked[0]
	description := moodDescriptions[top]
	if name == "Mixed" {
		description = "No single emotion leads - the color sits near the middle of the palette"
	}

	return MoodCategory{
		Name:        name,
		Dominant:    top,
		Share:       centroid[top],
		Description: description,
	}
}
