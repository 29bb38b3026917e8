package stats

import (
	"errors"
	"math"
	"testing"
)

func TestClean(t *testing.T) {
	in := []float64{1, math.NaN(), 2, math.Inf(1), 3}
	got := Clean(in)
	if len(got) != 3 {
		t.Fatalf("Clean() kept %d values, want 3", len(got))
	}
	if len(in) != 5 {
		t.Errorf("Clean() mutated its input")
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"SingleItem", []float64{0.02}, 0.9, 0.02},
		{"Constant", []float64{0.1, 0.1, 0.1, 0.1}, 0.75, 0.1},
		{"Min", []float64{3, 1, 2}, 0, 1},
		{"Max", []float64{3, 1, 2}, 1, 3},
		{"IgnoresNaN", []float64{math.NaN(), 5, math.NaN()}, 0.5, 5},
		{"EvenMedian", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"EvenP90", []float64{1, 2, 3, 4}, 0.9, 3.7},
		{"EvenP25", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"EvenP75", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"TwoRates", []float64{0.01, 0.03}, 0.5, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantile(tt.values, tt.p)
			if err != nil {
				t.Fatalf("Quantile() error = %v", err)
			}
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Quantile() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQuantile_Empty(t *testing.T) {
	if _, err := Quantile(nil, 0.5); !errors.Is(err, ErrEmptySample) {
		t.Errorf("expected ErrEmptySample, got %v", err)
	}
	if _, err := Quantile([]float64{math.NaN()}, 0.5); !errors.Is(err, ErrEmptySample) {
		t.Errorf("expected ErrEmptySample for all-missing sample, got %v", err)
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([]float64{0.01, 0.02, 0.03, math.NaN()})
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if math.Abs(got-0.02) > 1e-12 {
		t.Errorf("Mean() = %v, want 0.02", got)
	}
	if _, err := Mean(nil); !errors.Is(err, ErrEmptySample) {
		t.Errorf("expected ErrEmptySample, got %v", err)
	}
}
