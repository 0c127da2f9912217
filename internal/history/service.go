// Package history derives colors from free text and keeps a record of past
// derivations for listing and mood grouping.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-emotion-color/internal/clustering"
	"github.com/justestif/go-emotion-color/internal/color"
	"github.com/justestif/go-emotion-color/internal/db"
	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Default concurrency for batch derivation.
const DefaultConcurrency = 5

// Classifier turns text into an emotion distribution.
type Classifier interface {
	Classify(text string) (emotion.Distribution, error)
}

// Store persists derivations. *db.DerivationRepository satisfies it.
type Store interface {
	Create(ctx context.Context, d *db.Derivation) error
	Get(ctx context.Context, id uuid.UUID) (*db.Derivation, error)
	ListRecent(ctx context.Context, limit int) ([]db.Derivation, error)
	ListSince(ctx context.Context, since time.Time) ([]db.Derivation, error)
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// Pinger reports whether the backing database is reachable. *db.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Result is the outcome of deriving a color for one text.
type Result struct {
	ID           uuid.UUID // uuid.Nil when no store is configured
	Text         string
	Distribution emotion.Distribution
	Color        color.Color
	CreatedAt    time.Time
	Error        error // Set by DeriveBatch when this item failed
}

// MoodResult contains the outcome of mood grouping.
type MoodResult struct {
	Groups        []clustering.MoodGroup
	Outliers      []clustering.Reading
	TotalReadings int
}

// Service classifies text, derives colors, and records the results.
type Service struct {
	classifier  Classifier
	deriver     *emotion.Deriver
	store       Store
	pinger      Pinger
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables persistence of derivations.
func WithStore(store Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPinger sets the health check used by Ping.
func WithPinger(p Pinger) Option {
	return func(s *Service) {
		s.pinger = p
	}
}

// WithConcurrency sets the number of concurrent derivations in DeriveBatch.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a new history service.
func NewService(classifier Classifier, deriver *emotion.Deriver, opts ...Option) *Service {
	s := &Service{
		classifier:  classifier,
		deriver:     deriver,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deriver returns the deriver used for blending.
func (s *Service) Deriver() *emotion.Deriver {
	return s.deriver
}

// HasStore reports whether derivations are persisted.
func (s *Service) HasStore() bool {
	return s.store != nil
}

// Ping checks the backing database. Without a pinger it always succeeds.
func (s *Service) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger.Ping(ctx)
}

// Derive classifies text, blends its distribution into a color, and saves the
// derivation when a store is configured.
func (s *Service) Derive(ctx context.Context, text string) (*Result, error) {
	dist, err := s.classifier.Classify(text)
	if err != nil {
		return nil, fmt.Errorf("classifying text: %w", err)
	}

	c, err := s.deriver.Derive(dist)
	if err != nil {
		return nil, fmt.Errorf("deriving color: %w", err)
	}

	result := &Result{
		Text:         text,
		Distribution: dist,
		Color:        c,
		CreatedAt:    s.now(),
	}

	if s.store == nil {
		return result, nil
	}

	record := db.Derivation{
		InputText:    text,
		Distribution: dist,
		Color:        c.Hex(),
	}
	if err := s.store.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("saving derivation: %w", err)
	}
	result.ID = record.ID
	result.CreatedAt = record.CreatedAt

	return result, nil
}

// DeriveBatch derives colors for multiple texts concurrently.
// Results are returned in the same order as input texts.
// Individual failures are captured in Result.Error rather than failing the batch.
func (s *Service) DeriveBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, len(texts))

	type workItem struct {
		index int
		text  string
	}
	workCh := make(chan workItem, len(texts))

	for i, t := range texts {
		workCh <- workItem{index: i, text: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				select {
				case <-ctx.Done():
					results[work.index] = Result{Text: work.text, Error: ctx.Err()}
					continue
				default:
				}

				r, err := s.Derive(ctx, work.text)
				if err != nil {
					results[work.index] = Result{Text: work.text, Error: err}
					continue
				}
				results[work.index] = *r
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	return results, nil
}

// Get retrieves one stored derivation. Returns db.ErrNotFound when no store
// is configured.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	if s.store == nil {
		return nil, db.ErrNotFound
	}
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting derivation: %w", err)
	}
	r, err := toResult(*d)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Recent returns the most recent derivations, newest first. Without a store
// the list is empty.
func (s *Service) Recent(ctx context.Context, limit int) ([]Result, error) {
	if s.store == nil {
		return nil, nil
	}
	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent derivations: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, d := range records {
		r, err := toResult(d)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// MoodGroups clusters every stored derivation into mood groups.
func (s *Service) MoodGroups(ctx context.Context, cfg clustering.MoodConfig) (*MoodResult, error) {
	if s.store == nil {
		return &MoodResult{}, nil
	}

	records, err := s.store.ListSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading derivations: %w", err)
	}

	readings := make([]clustering.Reading, len(records))
	for i, d := range records {
		readings[i] = toReading(d)
	}

	groups, outliers := clustering.DetectMoodGroups(readings, s.deriver, cfg)

	return &MoodResult{
		Groups:        groups,
		Outliers:      outliers,
		TotalReadings: len(readings),
	}, nil
}

// Prune deletes derivations older than maxAge and returns how many were removed.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.DeleteOlderThan(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("pruning derivations: %w", err)
	}
	return n, nil
}

// toResult converts a stored derivation back to a Result.
func toResult(d db.Derivation) (Result, error) {
	c, err := color.ParseHex(d.Color)
	if err != nil {
		return Result{}, fmt.Errorf("derivation %s: %w", d.ID, err)
	}
	return Result{
		ID:           d.ID,
		Text:         d.InputText,
		Distribution: d.Distribution,
		Color:        c,
		CreatedAt:    d.CreatedAt,
	}, nil
}

// toReading converts a stored derivation to a clustering.Reading.
func toReading(d db.Derivation) clustering.Reading {
	return clustering.Reading{
		ID:           d.ID.String(),
		Text:         d.InputText,
		Distribution: d.Distribution,
		CreatedAt:    d.CreatedAt,
	}
}
