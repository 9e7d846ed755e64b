package runner

import (
	"context"
	"fmt"

	"github.com/reviewsim/reviewsim/internal/simulation"
	"github.com/reviewsim/reviewsim/internal/store"
)

// Report is the full result view of one simulation, rebuilt from the
// persisted reviews.
type Report struct {
	Simulation   store.Simulation             `json:"simulation" yaml:"simulation"`
	Product      store.Product                `json:"product" yaml:"product"`
	Summary      simulation.SimulationSummary `json:"summary" yaml:"summary"`
	Statistics   simulation.Statistics        `json:"statistics" yaml:"statistics"`
	Score        *simulation.ProductScore     `json:"score,omitempty" yaml:"score,omitempty"`
	Histogram    []simulation.HistogramBucket `json:"similarity_histogram" yaml:"similarity_histogram"`
	Samples      []store.Review               `json:"sample_reviews" yaml:"sample_reviews"`
	TotalReviews int                          `json:"total_reviews" yaml:"total_reviews"`
}

// Completed reports whether the simulation finished successfully.
func (r *Report) Completed() bool {
	return r.Simulation.Status == store.StatusCompleted
}

// Report loads simulation id and recomputes its aggregates. Simulations that
// are not COMPLETED get a report with empty aggregates and no score.
func (r *Runner) Report(ctx context.Context, id string) (*Report, error) {
	sim, product, err := r.store.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Simulation: sim,
		Product:    product,
		Summary:    simulation.Aggregate(nil),
		Histogram:  []simulation.HistogramBucket{},
		Samples:    []store.Review{},
	}
	if sim.Status != store.StatusCompleted {
		return rep, nil
	}

	reviews, err := r.store.ListReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("runner: report %s: %w", id, err)
	}
	ratings := make([]simulation.PredictedRating, len(reviews))
	for i, rv := range reviews {
		ratings[i] = simulation.PredictedRating{
			CustomerID:  rv.CustomerID,
			Rating:      rv.Rating,
			Similarity:  rv.Similarity,
			SegmentName: rv.SegmentName,
		}
	}

	samples, err := r.store.SampleReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("runner: report %s: %w", id, err)
	}

	rep.Summary = simulation.Aggregate(ratings)
	rep.Statistics = simulation.ComputeStatistics(ratings)
	rep.Histogram = simulation.SimilarityHistogram(ratings)
	rep.Samples = samples
	rep.TotalReviews = len(reviews)
	score := simulation.Score(rep.Summary)
	rep.Score = &score
	return rep, nil
}
