package vecmath

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize_UnitLength(t *testing.T) {
	got, err := Normalize([]float32{3, 4})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if math.Abs(Norm(got)-1) > 1e-6 {
		t.Errorf("norm: got %f, want 1", Norm(got))
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("got %v, want [0.6 0.8]", got)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	if _, err := Normalize(in); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	_, err := Normalize([]float32{0, 0, 0})
	if !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector, got %v", err)
	}
}

func TestNormalizeInPlace_LeavesZeroVectorAsIs(t *testing.T) {
	v := []float32{0, 0}
	if err := NormalizeInPlace(v); err == nil {
		t.Fatal("expected error")
	}
	if v[0] != 0 || v[1] != 0 {
		t.Errorf("zero vector modified: %v", v)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineSimilarity: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DimensionError, got %T", err)
	}
	if de.Got != 3 || de.Want != 2 {
		t.Errorf("got %d/%d, want 3/2", de.Got, de.Want)
	}
}

func TestCosineSimilarity_Empty(t *testing.T) {
	if _, err := CosineSimilarity(nil, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for empty vectors, got %v", err)
	}
}

func TestCosineSimilarity_ZeroNorm(t *testing.T) {
	if _, err := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector, got %v", err)
	}
}

func TestDot_MatchesCosineForUnitVectors(t *testing.T) {
	a, _ := Normalize([]float32{1, 2, 3})
	b, _ := Normalize([]float32{-2, 1, 4})
	dot, err := Dot(a, b)
	if err != nil {
		t.Fatalf("Dot: %v", err)
	}
	cos, _ := CosineSimilarity(a, b)
	if math.Abs(dot-cos) > 1e-6 {
		t.Errorf("dot %f != cosine %f", dot, cos)
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension(make([]float32, EmbeddingDimension), EmbeddingDimension); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckDimension(make([]float32, 10), EmbeddingDimension); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
