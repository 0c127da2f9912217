// Package classifier implements a multinomial naive Bayes text classifier
// that produces emotion distributions.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Sentinel errors.
var (
	// ErrNoExamples is returned when training is attempted without data.
	ErrNoExamples = errors.New("no training examples")

	// ErrEmptyText is returned when classifying blank input.
	ErrEmptyText = errors.New("empty text")

	// ErrInvalidPriors is returned when class priors are missing or non-positive.
	ErrInvalidPriors = errors.New("invalid class priors")
)

// DefaultAlpha is the additive (Laplace) smoothing parameter.
const DefaultAlpha = 1.0

// DefaultPriors offsets the class imbalance of the bundled training data.
var DefaultPriors = map[emotion.Category]float64{
	emotion.Happy:    0.3276,
	emotion.Sadness:  0.2920,
	emotion.Anger:    0.1395,
	emotion.Fear:     0.1236,
	emotion.Love:     0.0765,
	emotion.Surprise: 0.0410,
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and splits it into word tokens of at least two
// characters.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Example is a labeled training sentence.
type Example struct {
	Text  string
	Label emotion.Category
}

// Model is a trained classifier. A Model is read-only after training and safe
// for concurrent use.
type Model struct {
	Classes        []emotion.Category `json:"classes"`
	Vocabulary     map[string]int     `json:"vocabulary"`
	LogPriors      []float64          `json:"log_priors"`
	LogLikelihoods [][]float64        `json:"log_likelihoods"` // [class][token]
	Alpha          float64            `json:"alpha"`
}

type trainConfig struct {
	alpha  float64
	priors map[emotion.Category]float64
}

// TrainOption configures training.
type TrainOption func(*trainConfig)

// WithAlpha sets the smoothing parameter.
func WithAlpha(alpha float64) TrainOption {
	return func(c *trainConfig) {
		if alpha > 0 {
			c.alpha = alpha
		}
	}
}

// WithPriors sets fixed class priors. Every trained class must have a
// positive prior.
func WithPriors(priors map[emotion.Category]float64) TrainOption {
	return func(c *trainConfig) {
		c.priors = priors
	}
}

// WithFittedPriors derives class priors from label frequencies in the
// training data.
func WithFittedPriors() TrainOption {
	return func(c *trainConfig) {
		c.priors = nil
	}
}

// Train fits a model to the examples. By default DefaultPriors are used.
func Train(examples []Example, opts ...TrainOption) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	cfg := trainConfig{
		alpha:  DefaultAlpha,
		priors: DefaultPriors,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Classes present in the data, canonical order
	present := make(map[emotion.Category]int)
	for _, ex := range examples {
		if !ex.Label.Valid() {
			return nil, &emotion.UnknownCategoryError{Name: ex.Label.String()}
		}
		present[ex.Label]++
	}
	var classes []emotion.Category
	for _, c := range emotion.Categories() {
		if present[c] > 0 {
			classes = append(classes, c)
		}
	}
	classIndex := make(map[emotion.Category]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	// Vocabulary in sorted order so indices are stable
	tokenized := make([][]string, len(examples))
	seen := make(map[string]struct{})
	for i, ex := range examples {
		tokenized[i] = Tokenize(ex.Text)
		for _, tok := range tokenized[i] {
			seen[tok] = struct{}{}
		}
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	vocab := make(map[string]int, len(words))
	for i, w := range words {
		vocab[w] = i
	}

	// Token counts per class
	counts := make([][]float64, len(classes))
	totals := make([]float64, len(classes))
	for i := range counts {
		counts[i] = make([]float64, len(words))
	}
	for i, ex := range examples {
		ci := classIndex[ex.Label]
		for _, tok := range tokenized[i] {
			counts[ci][vocab[tok]]++
			totals[ci]++
		}
	}

	logLik := make([][]float64, len(classes))
	for ci := range classes {
		denom := totals[ci] + cfg.alpha*float64(len(words))
		logLik[ci] = make([]float64, len(words))
		for wi := range words {
			logLik[ci][wi] = math.Log((counts[ci][wi] + cfg.alpha) / denom)
		}
	}

	logPriors, err := buildLogPriors(classes, present, len(examples), cfg.priors)
	if err != nil {
		return nil, err
	}

	return &Model{
		Classes:        classes,
		Vocabulary:     vocab,
		LogPriors:      logPriors,
		LogLikelihoods: logLik,
		Alpha:          cfg.alpha,
	}, nil
}

// buildLogPriors returns log class priors, either fixed or fitted from counts.
func buildLogPriors(classes []emotion.Category, present map[emotion.Category]int, n int, priors map[emotion.Category]float64) ([]float64, error) {
	out := make([]float64, len(classes))
	for i, c := range classes {
		if priors == nil {
			out[i] = math.Log(float64(present[c]) / float64(n))
			continue
		}
		p, ok := priors[c]
		if !ok || !(p > 0) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPriors, c)
		}
		out[i] = math.Log(p)
	}
	return out, nil
}

// Classify returns the posterior probability of each trained class. Words
// that were never seen in training are ignored; text with no known words
// yields the priors.
func (m *Model) Classify(text string) (emotion.Distribution, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	joint := make([]float64, len(m.Classes))
	copy(joint, m.LogPriors)
	for _, tok := range Tokenize(text) {
		wi, ok := m.Vocabulary[tok]
		if !ok {
			continue
		}
		for ci := range m.Classes {
			joint[ci] += m.LogLikelihoods[ci][wi]
		}
	}

	// log-sum-exp normalization
	maxLog := math.Inf(-1)
	for _, v := range joint {
		maxLog = math.Max(maxLog, v)
	}
	var total float64
	for i, v := range joint {
		joint[i] = math.Exp(v - maxLog)
		total += joint[i]
	}

	dist := make(emotion.Distribution, len(m.Classes))
	for ci, c := range m.Classes {
		dist[c] = joint[ci] / total
	}
	return dist, nil
}

// Predict returns the most probable category for text.
func (m *Model) Predict(text string) (emotion.Category, error) {
	dist, err := m.Classify(text)
	if err != nil {
		return 0, err
	}
	return dist.Dominant()[0], nil
}
