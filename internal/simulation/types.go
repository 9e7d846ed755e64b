// Package simulation is the review simulation engine. It ranks a customer
// corpus against a product embedding, predicts a 1-5 star rating per customer,
// aggregates the ratings, writes templated review text and scores the product.
//
// Every stage is a pure, in-memory transformation over the previous stage's
// output. Nothing in this package performs I/O.
package simulation

import (
	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// Profile trait indices.
const (
	TraitPriceSensitivity = iota
	TraitQualityFocus
	TraitDesignFocus
	TraitBrandLoyalty
	TraitReviewStrictness
)

// defaultTrait stands in for a trait that was never set.
const defaultTrait = 0.5

// ProfileVector holds the five behavioral traits of a customer, each in [0,1].
// A zero entry is treated as unset.
type ProfileVector [vecmath.ProfileDimension]float64

// Trait returns trait i, or 0.5 when it is unset.
func (p ProfileVector) Trait(i int) float64 {
	if i < 0 || i >= len(p) || p[i] == 0 {
		return defaultTrait
	}
	return p[i]
}

// ProfileFromSlice builds a ProfileVector, failing on a wrong length.
func ProfileFromSlice(v []float64) (ProfileVector, error) {
	var p ProfileVector
	if len(v) != len(p) {
		return p, &vecmath.DimensionError{Got: len(v), Want: len(p)}
	}
	copy(p[:], v)
	return p, nil
}

// Customer is one member of the simulated population.
type Customer struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	SegmentID   string        `json:"segment_id"`
	SegmentName string        `json:"segment_name"`
	Profile     ProfileVector `json:"profile"`
	Preference  []float32     `json:"-"`
}

// SimilarityRecord is the ranker's output for one customer.
type SimilarityRecord struct {
	CustomerID  string        `json:"customer_id"`
	Similarity  float64       `json:"similarity"`
	Profile     ProfileVector `json:"profile"`
	SegmentName string        `json:"segment_name"`
}

// PredictedRating is the predictor's output for one customer. Similarity is
// the raw, un-normalized value.
type PredictedRating struct {
	CustomerID  string  `json:"customer_id"`
	Rating      int     `json:"rating"`
	Similarity  float64 `json:"similarity"`
	SegmentName string  `json:"segment_name"`
}

// Distribution is the percentage of ratings in each star bucket.
type Distribution struct {
	Star1 float64 `json:"star1" yaml:"star1"`
	Star2 float64 `json:"star2" yaml:"star2"`
	Star3 float64 `json:"star3" yaml:"star3"`
	Star4 float64 `json:"star4" yaml:"star4"`
	Star5 float64 `json:"star5" yaml:"star5"`
}

// Bucket returns the percentage for star k (1..5), or 0 for other values.
func (d Distribution) Bucket(k int) float64 {
	switch k {
	case 1:
		return d.Star1
	case 2:
		return d.Star2
	case 3:
		return d.Star3
	case 4:
		return d.Star4
	case 5:
		return d.Star5
	}
	return 0
}

// Total returns the sum of all buckets.
func (d Distribution) Total() float64 {
	return d.Star1 + d.Star2 + d.Star3 + d.Star4 + d.Star5
}

// SegmentAnalysis summarises the ratings of one segment.
type SegmentAnalysis struct {
	SegmentName   string       `json:"segment_name" yaml:"segment_name"`
	CustomerCount int          `json:"customer_count" yaml:"customer_count"`
	AvgRating     float64      `json:"avg_rating" yaml:"avg_rating"`
	Distribution  Distribution `json:"distribution" yaml:"distribution"`
}

// SimulationSummary is the aggregate of a whole run.
type SimulationSummary struct {
	TotalCustomers int               `json:"total_customers" yaml:"total_customers"`
	AvgRating      float64           `json:"avg_rating" yaml:"avg_rating"`
	ConversionRate float64           `json:"conversion_rate" yaml:"conversion_rate"` // % of ratings >= 4
	Distribution   Distribution      `json:"distribution" yaml:"distribution"`
	Segments       []SegmentAnalysis `json:"segments" yaml:"segments"`
}

// GeneratedReview is the synthesized review text for one customer.
type GeneratedReview struct {
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
}
