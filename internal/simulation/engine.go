package simulation

import (
	"context"
	"fmt"
)

// Engine runs the full rank, predict, aggregate, synthesize and score pipeline.
type Engine struct {
	ranker    Ranker
	predictor *Predictor
}

// NewEngine creates an Engine. A nil ranker defaults to an ExhaustiveRanker.
func NewEngine(ranker Ranker, predictor *Predictor) *Engine {
	if ranker == nil {
		ranker = NewExhaustiveRanker(0)
	}
	if predictor == nil {
		predictor = NewPredictor(0)
	}
	return &Engine{ranker: ranker, predictor: predictor}
}

// RunOptions controls a single run.
type RunOptions struct {
	// Limit caps the number of ranked customers; <= 0 means the whole corpus.
	Limit int
	// Seed drives review template selection.
	Seed int64
}

// Result is everything a run produces.
type Result struct {
	Records    []SimilarityRecord `json:"-"`
	Ratings    []PredictedRating  `json:"ratings"`
	Summary    SimulationSummary  `json:"summary"`
	Statistics Statistics         `json:"statistics"`
	Reviews    []GeneratedReview  `json:"reviews"`
	Score      ProductScore       `json:"score"`
}

// Run executes the pipeline. Cancellation is checked between stages.
func (e *Engine) Run(ctx context.Context, query []float32, corpus []Customer, opts RunOptions) (*Result, error) {
	records, err := e.ranker.Rank(ctx, query, corpus, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("engine: rank: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratings := e.predictor.PredictBatch(records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := Aggregate(ratings)

	inputs := make([]ReviewInput, len(ratings))
	for i, r := range ratings {
		inputs[i] = ReviewInput{
			CustomerID:  r.CustomerID,
			Rating:      r.Rating,
			SegmentName: r.SegmentName,
			Similarity:  r.Similarity,
			Profile:     records[i].Profile,
		}
	}
	reviews := SynthesizeBatch(inputs, opts.Seed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Records:    records,
		Ratings:    ratings,
		Summary:    summary,
		Statistics: ComputeStatistics(ratings),
		Reviews:    reviews,
		Score:      Score(summary),
	}, nil
}
