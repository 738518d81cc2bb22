package semantic

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, 2},
		{"scaled vectors have zero distance", []float32{1, 2}, []float32{2, 4}, 0},
		{"mismatched lengths", []float32{1, 0}, []float32{1, 0, 0}, 1},
		{"empty vectors", []float32{}, []float32{}, 1},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{0.5}, 95, 0.5},
		{"p zero returns min", []float64{3, 1, 2}, 0, 1},
		{"p hundred returns max", []float64{3, 1, 2}, 100, 3},
		{"median of even count interpolates", []float64{1, 2, 3, 4}, 50, 2.5},
		{"median of odd count", []float64{1, 2, 3, 4, 5}, 50, 3},
		{"quarter of five values", []float64{1, 2, 3, 4, 5}, 25, 2},
		{"ninety-fifth of four values", []float64{1, 2, 3, 4}, 95, 3.85},
		{"unsorted input", []float64{4, 1, 3, 2}, 50, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(tt.values, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	percentile(values, 50)

	want := []float64{4, 1, 3, 2}
	for i := range values {
		if values[i] != want[i] {
			t.Fatalf("input mutated at %d: %v", i, values)
		}
	}
}
