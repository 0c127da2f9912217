package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Column names expected in the CSV header (case-insensitive).
const (
	textColumn    = "text"
	emotionColumn = "emotion"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// LoadCSV reads labeled examples from CSV with a header row containing Text
// and Emotion columns. Other columns are ignored.
func LoadCSV(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoExamples
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	textIdx, emotionIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case textColumn:
			textIdx = i
		case emotionColumn:
			emotionIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: Text", ErrMissingColumn)
	}
	if emotionIdx < 0 {
		return nil, fmt.Errorf("%w: Emotion", ErrMissingColumn)
	}

	var examples []Example
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if textIdx >= len(record) || emotionIdx >= len(record) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(textIdx, emotionIdx)+1, len(record))
		}

		label, err := emotion.ParseCategory(strings.ToLower(strings.TrimSpace(record[emotionIdx])))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, Example{
			Text:  record[textIdx],
			Label: label,
		})
	}

	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	return examples, nil
}

// LoadCSVFile reads labeled examples from a CSV file.
func LoadCSVFile(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training data: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}
