// Package vecmath provides the vector primitives used by the simulation engine:
// L2 normalization, cosine similarity and fixed-dimension checks.
package vecmath

import (
	"errors"
	"fmt"
	"math"
)

const (
	// ProfileDimension is the length of a customer behavioral profile.
	ProfileDimension = 5
	// EmbeddingDimension is the length of preference and query embeddings.
	EmbeddingDimension = 384
)

var (
	// ErrDimensionMismatch is returned when a vector does not have the expected length.
	ErrDimensionMismatch = errors.New("vecmath: dimension mismatch")
	// ErrDegenerateVector is returned when a vector has zero L2 norm.
	ErrDegenerateVector = errors.New("vecmath: degenerate vector")
)

// DimensionError reports the offending lengths. It unwraps to ErrDimensionMismatch.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vecmath: dimension mismatch: got %d, want %d", e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// CheckDimension returns a *DimensionError when len(v) != want.
func CheckDimension(v []float32, want int) error {
	if len(v) != want {
		return &DimensionError{Got: len(v), Want: want}
	}
	return nil
}

// Norm returns the L2 norm of v, accumulated in float64.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	out := make([]float32, len(v))
	copy(out, v)
	if err := NormalizeInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeInPlace scales v to unit L2 norm. v is left untouched on error.
func NormalizeInPlace(v []float32) error {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) {
		return ErrDegenerateVector
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return nil
}

// Dot returns the dot product of a and b. For unit vectors this equals the
// cosine similarity.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, &DimensionError{Got: len(b), Want: len(a)}
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// CosineSimilarity computes dot(a,b)/(|a||b|), in [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, &DimensionError{Got: len(b), Want: len(a)}
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	// Guard against float drift just outside the valid range.
	return math.Max(-1, math.Min(1, sim)), nil
}
