package simulation

import (
	"math"
	"sort"
)

// Aggregate reduces per-customer ratings to a SimulationSummary. Empty input
// yields an all-zero summary with no segments.
func Aggregate(ratings []PredictedRating) SimulationSummary {
	if len(ratings) == 0 {
		return SimulationSummary{Segments: []SegmentAnalysis{}}
	}

	total := len(ratings)
	var sum, converted int
	for _, r := range ratings {
		sum += r.Rating
		if r.Rating >= 4 {
			converted++
		}
	}

	groups := make(map[string][]PredictedRating)
	for _, r := range ratings {
		groups[r.SegmentName] = append(groups[r.SegmentName], r)
	}

	segments := make([]SegmentAnalysis, 0, len(groups))
	for name, group := range groups {
		var segSum int
		for _, r := range group {
			segSum += r.Rating
		}
		segments = append(segments, SegmentAnalysis{
			SegmentName:   name,
			CustomerCount: len(group),
			AvgRating:     round2(float64(segSum) / float64(len(group))),
			Distribution:  RatingDistribution(group),
		})
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].SegmentName < segments[j].SegmentName
	})

	return SimulationSummary{
		TotalCustomers: total,
		AvgRating:      round2(float64(sum) / float64(total)),
		ConversionRate: round2(float64(converted) / float64(total) * 100),
		Distribution:   RatingDistribution(ratings),
		Segments:       segments,
	}
}

// RatingDistribution returns the percentage of ratings per star, each bucket
// rounded to two decimals independently. The buckets may therefore not sum to
// exactly 100.
func RatingDistribution(ratings []PredictedRating) Distribution {
	if len(ratings) == 0 {
		return Distribution{}
	}
	var counts [6]int
	for _, r := range ratings {
		if r.Rating >= 1 && r.Rating <= 5 {
			counts[r.Rating]++
		}
	}
	pct := func(k int) float64 {
		return round2(float64(counts[k]) / float64(len(ratings)) * 100)
	}
	return Distribution{
		Star1: pct(1),
		Star2: pct(2),
		Star3: pct(3),
		Star4: pct(4),
		Star5: pct(5),
	}
}

// HistogramBucket counts ratings whose raw similarity falls in
// [Lower, Lower+0.1).
type HistogramBucket struct {
	Lower float64 `json:"bucket" yaml:"bucket"`
	Count int     `json:"count" yaml:"count"`
}

// SimilarityHistogram buckets raw similarities by floor(sim*10)/10, ascending.
func SimilarityHistogram(ratings []PredictedRating) []HistogramBucket {
	counts := make(map[int]int)
	for _, r := range ratings {
		counts[int(math.Floor(r.Similarity*10))]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]HistogramBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, HistogramBucket{Lower: float64(k) / 10, Count: counts[k]})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
