package simulation

import (
	"math"
	"sort"
)

// Statistics are descriptive statistics over a set of ratings.
type Statistics struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Mode   int     `json:"mode" yaml:"mode"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// ComputeStatistics returns mean, median, mode and population standard
// deviation of the ratings. Mean and StdDev are rounded to two decimals.
// Mode ties resolve to the lowest rating value.
func ComputeStatistics(ratings []PredictedRating) Statistics {
	n := len(ratings)
	if n == 0 {
		return Statistics{}
	}

	values := make([]int, n)
	var sum int
	for i, r := range ratings {
		values[i] = r.Rating
		sum += r.Rating
	}
	mean := float64(sum) / float64(n)

	sort.Ints(values)
	var median float64
	if n%2 == 0 {
		median = float64(values[n/2-1]+values[n/2]) / 2
	} else {
		median = float64(values[n/2])
	}

	// values is sorted, so scanning ascending keeps the lowest value on ties.
	mode, best := values[0], 0
	for i := 0; i < n; {
		j := i
		for j < n && values[j] == values[i] {
			j++
		}
		if j-i > best {
			mode, best = values[i], j-i
		}
		i = j
	}

	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}

	return Statistics{
		Mean:   round2(mean),
		Median: median,
		Mode:   mode,
		StdDev: round2(math.Sqrt(sq / float64(n))),
	}
}
