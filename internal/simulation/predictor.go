package simulation

import (
	"math"
	"runtime"
	"sync"
)

// Thresholds for the rating rules. The rules fire in a fixed order and later
// rules may override clamps set by earlier ones.
const (
	highSimilarity     = 0.7
	brandSimilarity    = 0.6
	midSimilarityLow   = 0.4
	lowSimilarity      = 0.3
	strongTrait        = 0.7
	lenientStrictness  = 0.3
	qualityBoost       = 0.8
	brandBoost         = 0.5
	pricePenalty       = 0.5
	lowSimilarityCap   = 2.5
	strictnessPenalty  = 0.5
	leniencyBoost      = 0.3
	designFloor        = 3.0
	pricePenaltyFloor  = 2.0
	minRating          = 1
	maxRating          = 5
	parallelPredictMin = 2048
)

// Predictor converts ranked similarity records into star ratings.
type Predictor struct {
	workers int
}

// NewPredictor creates a Predictor. workers <= 0 uses GOMAXPROCS.
func NewPredictor(workers int) *Predictor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Predictor{workers: workers}
}

// PredictBatch rates every record. Similarities are first rescaled to [0,1]
// relative to the batch's own min and max, so the same customer can receive a
// different rating in a run with a different similarity spread. The returned
// ratings keep the raw similarity.
func (p *Predictor) PredictBatch(records []SimilarityRecord) []PredictedRating {
	if len(records) == 0 {
		return []PredictedRating{}
	}

	// Phase 1: global min/max. Must complete before any scoring.
	minSim, maxSim := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		minSim = math.Min(minSim, r.Similarity)
		maxSim = math.Max(maxSim, r.Similarity)
	}
	span := maxSim - minSim
	if span == 0 {
		span = 1
	}

	// Phase 2: independent per-record scoring.
	out := make([]PredictedRating, len(records))
	score := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			r := records[i]
			norm := clamp((r.Similarity-minSim)/span, 0, 1)
			out[i] = PredictedRating{
				CustomerID:  r.CustomerID,
				Rating:      PredictRating(norm, r.Profile),
				Similarity:  r.Similarity,
				SegmentName: r.SegmentName,
			}
		}
	}

	if len(records) < parallelPredictMin || p.workers == 1 {
		score(0, len(records))
		return out
	}

	var wg sync.WaitGroup
	chunk := (len(records) + p.workers - 1) / p.workers
	for lo := 0; lo < len(records); lo += chunk {
		hi := min(lo+chunk, len(records))
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			score(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	return out
}

// PredictRating maps a normalized similarity in [0,1] and a profile to a
// rating in 1..5.
func PredictRating(normSim float64, profile ProfileVector) int {
	price := profile.Trait(TraitPriceSensitivity)
	quality := profile.Trait(TraitQualityFocus)
	design := profile.Trait(TraitDesignFocus)
	brand := profile.Trait(TraitBrandLoyalty)
	strictness := profile.Trait(TraitReviewStrictness)

	base := normSim * maxRating

	if normSim > highSimilarity && quality > strongTrait {
		base = math.Min(maxRating, base+qualityBoost)
	}
	if normSim > brandSimilarity && brand > strongTrait {
		base = math.Min(maxRating, base+brandBoost)
	}
	if normSim > midSimilarityLow && normSim < highSimilarity && price > strongTrait {
		base = math.Max(pricePenaltyFloor, base-pricePenalty)
	}
	if normSim < lowSimilarity {
		base = math.Min(lowSimilarityCap, base)
	}
	if strictness > strongTrait {
		base = math.Max(minRating, base-strictnessPenalty)
	} else if strictness < lenientStrictness {
		base = math.Min(maxRating, base+leniencyBoost)
	}
	if design > strongTrait && normSim > midSimilarityLow && normSim < highSimilarity {
		base = math.Min(maxRating, math.Max(designFloor, base))
	}

	return int(math.Round(clamp(base, minRating, maxRating)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
