package clustering

import (
	"fmt"
	"strings"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

const (
	sampleReadingCount = 3
	dateFormat         = "2006-01-02"
	sampleTextLimit    = 60
)

// FormatGroupSummary returns a human-readable summary of detected mood groups.
// Shows date range, reading count, color, and first 3 sample texts for each group.
// Outliers are summarized by count only.
func FormatGroupSummary(groups []MoodGroup, outliers []Reading) string {
	var sb strings.Builder

	total := len(outliers)
	for _, g := range groups {
		total += len(g.Readings)
	}

	if len(groups) == 0 {
		sb.WriteString(fmt.Sprintf("No mood groups found from %d readings", total))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	groupWord := "mood group"
	if len(groups) > 1 {
		groupWord = "mood groups"
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d readings", len(groups), groupWord, total))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(formatGroup(i+1, g))
	}

	return sb.String()
}

// formatGroup formats a single group with its sample readings.
func formatGroup(num int, g MoodGroup) string {
	var sb strings.Builder

	readingWord := "reading"
	if len(g.Readings) > 1 {
		readingWord = "readings"
	}

	sb.WriteString(fmt.Sprintf("Group %d: %s %s (%s to %s, %d %s)\n",
		num, g.Mood, g.Color.Hex(),
		g.StartDate.Format(dateFormat), g.EndDate.Format(dateFormat),
		len(g.Readings), readingWord))

	sb.WriteString(fmt.Sprintf("  Mix: %s\n", formatMix(g.Centroid)))

	sampleCount := min(sampleReadingCount, len(g.Readings))
	for i := 0; i < sampleCount; i++ {
		sb.WriteString(fmt.Sprintf("  • %q\n", truncate(g.Readings[i].Text, sampleTextLimit)))
	}

	remaining := len(g.Readings) - sampleReadingCount
	if remaining > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}

// formatMix lists the centroid's categories by descending weight.
func formatMix(centroid emotion.Distribution) string {
	var parts []string
	for _, c := range centroid.Dominant() {
		parts = append(parts, fmt.Sprintf("%s=%.0f%%", c.Title(), centroid[c]*100))
	}
	return strings.Join(parts, " ")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
