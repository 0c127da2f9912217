package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-emotion-color/internal/clustering"
	"github.com/justestif/go-emotion-color/internal/db"
	"github.com/justestif/go-emotion-color/internal/emotion"
)

var errClassify = errors.New("classifier exploded")

// mockClassifier implements Classifier for testing.
type mockClassifier struct {
	// results maps text to a distribution
	results map[string]emotion.Distribution
	// callCount tracks number of Classify calls
	callCount atomic.Int32
}

func (m *mockClassifier) Classify(text string) (emotion.Distribution, error) {
	m.callCount.Add(1)
	if text == "" {
		return nil, errors.New("empty text")
	}
	if text == "boom" {
		return nil, errClassify
	}
	if d, ok := m.results[text]; ok {
		return d, nil
	}
	return emotion.Distribution{emotion.Happy: 1}, nil
}

// memStore implements Store in memory.
type memStore struct {
	mu        sync.Mutex
	records   []db.Derivation
	createErr error
	clock     time.Time
}

func (m *memStore) Create(_ context.Context, d *db.Derivation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Hour)
	d.CreatedAt = m.clock
	m.records = append(m.records, *d)
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*db.Derivation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.records {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) ListRecent(_ context.Context, limit int) ([]db.Derivation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.records)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListSince(_ context.Context, since time.Time) ([]db.Derivation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Derivation
	for _, d := range m.records {
		if !d.CreatedAt.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) DeleteOlderThan(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []db.Derivation
	var n int64
	for _, d := range m.records {
		if d.CreatedAt.Before(t) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	m.records = kept
	return n, nil
}

func newClassifier() *mockClassifier {
	return &mockClassifier{results: map[string]emotion.Distribution{
		"furious but fond": {emotion.Anger: 0.7, emotion.Love: 0.3},
		"bittersweet":      {emotion.Happy: 0.5, emotion.Sadness: 0.5},
		"broken":           {emotion.Happy: 0.5},
	}}
}

func newDeriver() *emotion.Deriver {
	return emotion.NewDeriver(emotion.DefaultPalette())
}

func TestDeriveWithoutStore(t *testing.T) {
	svc := NewService(newClassifier(), newDeriver())
	require.False(t, svc.HasStore())

	got, err := svc.Derive(context.Background(), "furious but fond")
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, got.ID)
	require.Equal(t, "#D5415D", got.Color.Hex())
	require.Equal(t, "furious but fond", got.Text)
	require.False(t, got.CreatedAt.IsZero())

	recent, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, recent)

	_, err = svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeriveWithStore(t *testing.T) {
	store := &memStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewService(newClassifier(), newDeriver(), WithStore(store))

	got, err := svc.Derive(context.Background(), "bittersweet")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, got.ID)
	require.Equal(t, "#7F4E39", got.Color.Hex())
	require.Equal(t, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC), got.CreatedAt)

	require.Len(t, store.records, 1)
	require.Equal(t, "#7F4E39", store.records[0].Color)
	require.Equal(t, "bittersweet", store.records[0].InputText)

	fetched, err := svc.Get(context.Background(), got.ID)
	require.NoError(t, err)
	require.Equal(t, got.Color, fetched.Color)
	require.Equal(t, got.Distribution, fetched.Distribution)
}

func TestDeriveErrors(t *testing.T) {
	t.Run("classifier error", func(t *testing.T) {
		svc := NewService(newClassifier(), newDeriver())
		_, err := svc.Derive(context.Background(), "boom")
		require.ErrorIs(t, err, errClassify)
	})

	t.Run("invalid distribution", func(t *testing.T) {
		svc := NewService(newClassifier(), newDeriver())
		_, err := svc.Derive(context.Background(), "broken")
		require.ErrorIs(t, err, emotion.ErrDistributionSum)
		require.Equal(t, "distribution_sum", emotion.ErrorKind(err))
	})

	t.Run("store error", func(t *testing.T) {
		storeErr := errors.New("disk full")
		svc := NewService(newClassifier(), newDeriver(), WithStore(&memStore{createErr: storeErr}))
		_, err := svc.Derive(context.Background(), "bittersweet")
		require.ErrorIs(t, err, storeErr)
	})
}

func TestDeriveBatch(t *testing.T) {
	classifier := newClassifier()
	svc := NewService(classifier, newDeriver(), WithConcurrency(3))

	texts := []string{"furious but fond", "boom", "bittersweet", "broken", "anything"}
	results, err := svc.DeriveBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))
	require.Equal(t, int32(len(texts)), classifier.callCount.Load())

	for i, r := range results {
		require.Equal(t, texts[i], r.Text, "results must keep input order")
	}

	require.NoError(t, results[0].Error)
	require.Equal(t, "#D5415D", results[0].Color.Hex())
	require.ErrorIs(t, results[1].Error, errClassify)
	require.NoError(t, results[2].Error)
	require.ErrorIs(t, results[3].Error, emotion.ErrDistributionSum)
	require.NoError(t, results[4].Error)
}

func TestDeriveBatchEmpty(t *testing.T) {
	svc := NewService(newClassifier(), newDeriver())
	results, err := svc.DeriveBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDeriveBatchCancelled(t *testing.T) {
	classifier := newClassifier()
	svc := NewService(classifier, newDeriver())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	texts := []string{"a", "b", "c"}
	results, err := svc.DeriveBatch(ctx, texts)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for _, r := range results {
		require.ErrorIs(t, r.Error, context.Canceled)
	}
	require.Zero(t, classifier.callCount.Load())
}

func TestWithConcurrencyIgnoresNonPositive(t *testing.T) {
	svc := NewService(newClassifier(), newDeriver(), WithConcurrency(0))
	require.Equal(t, DefaultConcurrency, svc.concurrency)
}

func TestRecent(t *testing.T) {
	store := &memStore{}
	svc := NewService(newClassifier(), newDeriver(), WithStore(store))

	for i := 0; i < 5; i++ {
		_, err := svc.Derive(context.Background(), fmt.Sprintf("text %d", i))
		require.NoError(t, err)
	}

	recent, err := svc.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "text 4", recent[0].Text)
	require.Equal(t, "text 2", recent[2].Text)
}

func TestRecentCorruptColor(t *testing.T) {
	store := &memStore{records: []db.Derivation{{ID: uuid.New(), Color: "red"}}}
	svc := NewService(newClassifier(), newDeriver(), WithStore(store))

	_, err := svc.Recent(context.Background(), 10)
	require.Error(t, err)
}

func TestMoodGroups(t *testing.T) {
	store := &memStore{}
	classifier := &mockClassifier{results: map[string]emotion.Distribution{
		"sunny":  {emotion.Happy: 1},
		"stormy": {emotion.Anger: 1},
		"odd":    {emotion.Surprise: 1},
	}}
	svc := NewService(classifier, newDeriver(), WithStore(store))

	for _, text := range []string{"sunny", "sunny", "sunny", "stormy", "stormy", "stormy", "odd"} {
		_, err := svc.Derive(context.Background(), text)
		require.NoError(t, err)
	}

	result, err := svc.MoodGroups(context.Background(), clustering.MoodConfig{NumGroups: 3, MinGroupSize: 2})
	require.NoError(t, err)
	require.Equal(t, 7, result.TotalReadings)
	require.Len(t, result.Groups, 2)
	require.Len(t, result.Outliers, 1)
	require.Equal(t, "odd", result.Outliers[0].Text)

	// stormy readings were stored last
	require.Equal(t, "Anger", result.Groups[0].Mood)
	require.Equal(t, "Happy", result.Groups[1].Mood)
}

func TestMoodGroupsWithoutStore(t *testing.T) {
	svc := NewService(newClassifier(), newDeriver())
	result, err := svc.MoodGroups(context.Background(), clustering.DefaultMoodConfig())
	require.NoError(t, err)
	require.Empty(t, result.Groups)
	require.Zero(t, result.TotalReadings)
}

func TestPrune(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{clock: start}
	svc := NewService(newClassifier(), newDeriver(), WithStore(store))
	svc.now = func() time.Time { return start.Add(10 * time.Hour) }

	for i := 0; i < 4; i++ {
		_, err := svc.Derive(context.Background(), "sunny")
		require.NoError(t, err)
	}

	// records at +1h..+4h; cutoff at +10h-7h = +3h keeps +3h and +4h
	n, err := svc.Prune(context.Background(), 7*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Len(t, store.records, 2)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPing(t *testing.T) {
	svc := NewService(newClassifier(), newDeriver())
	require.NoError(t, svc.Ping(context.Background()))

	down := errors.New("connection refused")
	svc = NewService(newClassifier(), newDeriver(), WithPinger(pingFunc(func(context.Context) error { return down })))
	require.ErrorIs(t, svc.Ping(context.Background()), down)
}
