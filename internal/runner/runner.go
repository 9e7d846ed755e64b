// Package runner wires the simulation engine to persistence and embedding:
// it validates a request, embeds the product, runs the engine over the stored
// corpus and records the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/config"
	"github.com/reviewsim/reviewsim/internal/embed"
	"github.com/reviewsim/reviewsim/internal/simulation"
	"github.com/reviewsim/reviewsim/internal/store"
	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// Request defaults and limits.
const (
	MinDescriptionLength = 10
	DefaultProductName   = "Simulated product"
	DefaultPrice         = 1000
	DefaultRecent        = 5
)

// ErrInvalidRequest is returned for requests that fail validation.
var ErrInvalidRequest = errors.New("invalid request")

// Request describes one product to simulate.
type Request struct {
	Description string  `json:"description"`
	Name        string  `json:"product_name,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Category    string  `json:"category,omitempty"`
	// Segment restricts the run to one segment's customers.
	Segment string `json:"segment,omitempty"`
	// Limit caps the number of ranked customers; 0 uses the configured limit.
	Limit int `json:"limit,omitempty"`
	// Seed fixes review text selection; 0 uses the configured seed.
	Seed int64 `json:"seed,omitempty"`
}

// Normalize validates r and fills in defaults.
func (r Request) Normalize() (Request, error) {
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return r, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	if len([]rune(r.Description)) < MinDescriptionLength {
		return r, fmt.Errorf("%w: description must be at least %d characters", ErrInvalidRequest, MinDescriptionLength)
	}
	if r.Price < 0 {
		return r, fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
	}
	if r.Limit < 0 {
		return r, fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = DefaultProductName
	}
	if r.Price == 0 {
		r.Price = DefaultPrice
	}
	return r, nil
}

// Options configures a Runner.
type Options struct {
	Limit   int
	Ranker  string // config.RankerExhaustive or config.RankerIndexed
	Workers int
	Seed    int64
	Logger  zerolog.Logger

	// Now returns the current time; it seeds runs when no seed is configured.
	Now func() time.Time
}

// Runner executes simulations against a Store.
type Runner struct {
	store    *store.Store
	vectors  *store.VectorStore
	embedder embed.Embedder
	opts     Options
	logger   zerolog.Logger
}

// New creates a Runner. vectors may be nil, in which case the indexed ranker
// is never used.
func New(st *store.Store, vectors *store.VectorStore, embedder embed.Embedder, opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		store:    st,
		vectors:  vectors,
		embedder: embedder,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "runner").Logger(),
	}
}

// Simulate runs a full simulation and returns its report. Validation and
// embedding failures return an error without recording anything; failures
// after the simulation row exists mark it FAILED.
func (r *Runner) Simulate(ctx context.Context, req Request) (*Report, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	query, err := embed.EmbedQuery(ctx, r.embedder, req.Description)
	if err != nil {
		return nil, fmt.Errorf("runner: embed description: %w", err)
	}

	seed := req.Seed
	if seed == 0 {
		seed = r.opts.Seed
	}
	if seed == 0 {
		seed = r.opts.Now().UnixNano()
	}

	product, sim, err := r.store.CreateSimulation(ctx,
		store.Product{Name: req.Name, Description: req.Description, Price: req.Price, Category: req.Category},
		store.Simulation{Embedder: r.embedder.Name(), Seed: seed},
	)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	log := r.logger.With().Str("simulation_id", sim.ID).Str("product", product.Name).Logger()
	log.Info().Str("embedder", sim.Embedder).Int64("seed", seed).Msg("simulation started")
	start := r.opts.Now()

	if err := r.execute(ctx, sim.ID, query, req, seed, log); err != nil {
		// The caller's context may already be done; the failure must still be recorded.
		if ferr := r.store.FailSimulation(context.WithoutCancel(ctx), sim.ID, err); ferr != nil {
			log.Error().Err(ferr).Msg("could not mark simulation failed")
		}
		log.Error().Err(err).Msg("simulation failed")
		return nil, fmt.Errorf("runner: simulation %s: %w", sim.ID, err)
	}

	log.Info().Dur("elapsed", r.opts.Now().Sub(start)).Msg("simulation completed")
	return r.Report(ctx, sim.ID)
}

func (r *Runner) execute(ctx context.Context, simID string, query []float32, req Request, seed int64, log zerolog.Logger) error {
	corpus, err := r.loadCorpus(ctx, req.Segment)
	if err != nil {
		return err
	}
	corpus = dropDegenerate(corpus, log)
	log.Debug().Int("customers", len(corpus)).Msg("corpus loaded")

	limit := req.Limit
	if limit == 0 {
		limit = r.opts.Limit
	}

	engine := simulation.NewEngine(r.ranker(log), simulation.NewPredictor(r.opts.Workers))
	res, err := engine.Run(ctx, query, corpus, simulation.RunOptions{Limit: limit, Seed: seed})
	if err != nil {
		return err
	}

	reviews := make([]store.Review, len(res.Ratings))
	for i, rating := range res.Ratings {
		reviews[i] = store.Review{
			CustomerID:  rating.CustomerID,
			SegmentName: rating.SegmentName,
			Rating:      rating.Rating,
			Similarity:  rating.Similarity,
			Text:        res.Reviews[i].Text,
		}
	}
	if err := r.store.InsertReviews(ctx, simID, reviews); err != nil {
		return err
	}

	return r.store.CompleteSimulation(ctx, simID, res.Summary, res.Score)
}

func (r *Runner) loadCorpus(ctx context.Context, segment string) ([]simulation.Customer, error) {
	if segment == "" {
		return r.store.ListCustomers(ctx)
	}
	corpus, err := r.store.ListCustomersBySegment(ctx, segment)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: segment %q has no customers", ErrInvalidRequest, segment)
	}
	return corpus, nil
}

func (r *Runner) ranker(log zerolog.Logger) simulation.Ranker {
	exhaustive := simulation.NewExhaustiveRanker(r.opts.Workers)
	if r.opts.Ranker != config.RankerIndexed || r.vectors == nil {
		return exhaustive
	}
	indexed := simulation.NewIndexedRanker(r.vectors, exhaustive)
	indexed.OnFallback = func(reason string) {
		log.Debug().Str("reason", reason).Msg("indexed ranker fell back to exhaustive scan")
	}
	return indexed
}

// dropDegenerate removes customers whose preference vector cannot be compared.
func dropDegenerate(corpus []simulation.Customer, log zerolog.Logger) []simulation.Customer {
	out := corpus[:0]
	for _, c := range corpus {
		if vecmath.CheckDimension(c.Preference, vecmath.EmbeddingDimension) != nil || vecmath.Norm(c.Preference) == 0 {
			log.Warn().Str("customer_id", c.ID).Int("dimension", len(c.Preference)).Msg("skipping customer with unusable preference vector")
			continue
		}
		out = append(out, c)
	}
	return out
}

// Recent returns the n most recent simulations. n <= 0 uses DefaultRecent.
func (r *Runner) Recent(ctx context.Context, n int) ([]store.RecentSimulation, error) {
	if n <= 0 {
		n = DefaultRecent
	}
	return r.store.RecentSimulations(ctx, n)
}

// Simulation returns a simulation and its product.
func (r *Runner) Simulation(ctx context.Context, id string) (store.Simulation, store.Product, error) {
	return r.store.GetSimulation(ctx, id)
}

// CustomerStats returns corpus counts.
func (r *Runner) CustomerStats(ctx context.Context) (store.CustomerStats, error) {
	return r.store.CustomerStats(ctx)
}
