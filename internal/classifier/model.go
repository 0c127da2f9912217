package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// ErrCorruptModel is returned when a saved model is internally inconsistent.
var ErrCorruptModel = errors.New("corrupt model")

// Save writes the model as JSON.
func (m *Model) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return nil
}

// SaveFile writes the model to path, replacing any existing file.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadModel reads a model written by Save.
func LoadModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadModelFile reads a model from path.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()
	return LoadModel(f)
}

// check verifies the dimensions of a decoded model.
func (m *Model) check() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrCorruptModel)
	}
	if len(m.LogPriors) != len(m.Classes) || len(m.LogLikelihoods) != len(m.Classes) {
		return fmt.Errorf("%w: %d classes, %d priors, %d likelihood rows",
			ErrCorruptModel, len(m.Classes), len(m.LogPriors), len(m.LogLikelihoods))
	}
	for ci, row := range m.LogLikelihoods {
		if len(row) != len(m.Vocabulary) {
			return fmt.Errorf("%w: class %s has %d likelihoods for %d words",
				ErrCorruptModel, m.Classes[ci], len(row), len(m.Vocabulary))
		}
	}
	for word, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.Vocabulary) {
			return fmt.Errorf("%w: word %q has index %d", ErrCorruptModel, word, idx)
		}
	}
	return nil
}

// FormatPercentages renders a distribution as one "Happy: 42.00%" line per
// category, in canonical order.
func FormatPercentages(d emotion.Distribution) string {
	var sb strings.Builder
	for _, c := range emotion.Categories() {
		p, ok := d[c]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %.2f%%\n", c.Title(), p*100))
	}
	return sb.String()
}
