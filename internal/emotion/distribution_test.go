package emotion

import (
	"errors"
	"testing"
)

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution(map[string]float64{"happy": 0.4, "fear": 0.6})
	if err != nil {
		t.Fatalf("ParseDistribution() unexpected error: %v", err)
	}
	if d[Happy] != 0.4 || d[Fear] != 0.6 || len(d) != 2 {
		t.Errorf("ParseDistribution() = %v", d)
	}

	_, err = ParseDistribution(map[string]float64{"zeal": 0.1, "joy": 0.9})
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("ParseDistribution() error = %v, want *UnknownCategoryError", err)
	}
	if unknown.Name != "joy" {
		t.Errorf("first unknown label = %q, want %q (sorted order)", unknown.Name, "joy")
	}
}

func TestDistributionRaw(t *testing.T) {
	raw := Distribution{Anger: 0.3, Surprise: 0.7}.Raw()
	if len(raw) != 2 || raw["anger"] != 0.3 || raw["surprise"] != 0.7 {
		t.Errorf("Raw() = %v", raw)
	}
}

func TestDistributionVectorRoundTrip(t *testing.T) {
	d := Distribution{Sadness: 0.25, Love: 0.75}

	v := d.Vector()
	want := []float64{0, 0.25, 0, 0, 0.75, 0}
	if len(v) != len(want) {
		t.Fatalf("Vector() length = %d, want %d", len(v), len(want))
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("Vector()[%d] = %v, want %v", i, v[i], want[i])
		}
	}

	back := FromVector(v)
	if len(back) != 2 || back[Sadness] != 0.25 || back[Love] != 0.75 {
		t.Errorf("FromVector() = %v", back)
	}
}

func TestDistributionDominant(t *testing.T) {
	d := Distribution{Happy: 0.2, Fear: 0.5, Love: 0.2, Surprise: 0.1}

	got := d.Dominant()
	want := []Category{Fear, Happy, Love, Surprise}
	if len(got) != len(want) {
		t.Fatalf("Dominant() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dominant()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDistributionString(t *testing.T) {
	d := Distribution{Surprise: 0.5, Happy: 0.5}
	if got := d.String(); got != "happy=0.50 surprise=0.50" {
		t.Errorf("String() = %q", got)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&UnknownCategoryError{Name: "joy"}, "unknown_category"},
		{&InvalidProbabilityError{Category: Happy, Value: 2}, "invalid_probability"},
		{&DistributionSumError{Sum: 0.5, Tolerance: DefaultTolerance}, "distribution_sum"},
		{errors.New("other"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
