// Package corpus generates the synthetic customer population the simulation
// engine ranks against.
package corpus

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/simulation"
	"github.com/reviewsim/reviewsim/internal/store"
	"github.com/reviewsim/reviewsim/internal/vecmath"
)

const (
	// DefaultCustomersPerSegment gives a 10,000 customer corpus with the
	// default four segments.
	DefaultCustomersPerSegment = 2500
	// BatchSize is the number of customers written per transaction.
	BatchSize = 500
	// TraitStdDev is the spread of each trait around its segment mean.
	TraitStdDev = 0.15
)

// SegmentSpec describes a segment and the mean of its trait distribution.
type SegmentSpec struct {
	Name        string
	Description string
	Mean        simulation.ProfileVector
}

// DefaultSegments are the four segments of the standard corpus. Trait order
// is price, quality, design, brand, strictness.
var DefaultSegments = []SegmentSpec{
	{"Price Sensitive", "Shoppers who weigh every purchase against its price", simulation.ProfileVector{0.8, 0.3, 0.3, 0.2, 0.6}},
	{"Quality Focused", "Shoppers who care most about build quality", simulation.ProfileVector{0.3, 0.8, 0.5, 0.5, 0.7}},
	{"Design Lovers", "Shoppers drawn to look and feel", simulation.ProfileVector{0.4, 0.5, 0.8, 0.6, 0.5}},
	{"Brand Loyal", "Shoppers who stick with names they trust", simulation.ProfileVector{0.2, 0.6, 0.5, 0.8, 0.4}},
}

// Sink receives the generated corpus. *store.Store satisfies it.
type Sink interface {
	ClearCorpus(ctx context.Context) error
	UpsertSegment(ctx context.Context, seg store.Segment) (string, error)
	InsertCustomers(ctx context.Context, customers []simulation.Customer) error
}

// Options configures a Generator.
type Options struct {
	CustomersPerSegment int
	Seed                int64
	Segments            []SegmentSpec
	Logger              zerolog.Logger

	// OnProgress, if set, is called after every batch with the running total.
	OnProgress func(done, total int)
}

// Generator writes a reproducible synthetic corpus to a Sink.
type Generator struct {
	sink Sink
	opts Options
}

// NewGenerator creates a Generator. Zero options use the defaults.
func NewGenerator(sink Sink, opts Options) *Generator {
	if opts.CustomersPerSegment <= 0 {
		opts.CustomersPerSegment = DefaultCustomersPerSegment
	}
	if len(opts.Segments) == 0 {
		opts.Segments = DefaultSegments
	}
	return &Generator{sink: sink, opts: opts}
}

// Result reports what Seed wrote.
type Result struct {
	Segments  int
	Customers int
}

// Total returns the number of customers Seed will write.
func (g *Generator) Total() int {
	return g.opts.CustomersPerSegment * len(g.opts.Segments)
}

// Seed replaces the existing corpus with a freshly generated one. The same
// seed always produces the same customers, IDs included.
func (g *Generator) Seed(ctx context.Context) (Result, error) {
	log := g.opts.Logger
	rng := rand.New(rand.NewSource(g.opts.Seed))

	if err := g.sink.ClearCorpus(ctx); err != nil {
		return Result{}, fmt.Errorf("corpus: clear: %w", err)
	}

	total := g.Total()
	var res Result
	for _, spec := range g.opts.Segments {
		segID, err := g.sink.UpsertSegment(ctx, store.Segment{
			Name:        spec.Name,
			Description: spec.Description,
			Mean:        spec.Mean,
		})
		if err != nil {
			return res, fmt.Errorf("corpus: segment %q: %w", spec.Name, err)
		}
		res.Segments++
		log.Debug().Str("segment", spec.Name).Int("customers", g.opts.CustomersPerSegment).Msg("generating segment")

		for done := 0; done < g.opts.CustomersPerSegment; {
			n := min(BatchSize, g.opts.CustomersPerSegment-done)
			batch := make([]simulation.Customer, n)
			for i := range batch {
				batch[i] = NewCustomer(rng, spec, segID, res.Customers+i)
			}
			if err := g.sink.InsertCustomers(ctx, batch); err != nil {
				return res, fmt.Errorf("corpus: insert batch: %w", err)
			}
			done += n
			res.Customers += n
			if g.opts.OnProgress != nil {
				g.opts.OnProgress(res.Customers, total)
			}
		}
	}

	log.Info().Int("segments", res.Segments).Int("customers", res.Customers).Msg("corpus seeded")
	return res, nil
}

// NewCustomer draws one customer of the given segment. index selects the
// display name.
func NewCustomer(rng *rand.Rand, spec SegmentSpec, segmentID string, index int) simulation.Customer {
	var profile simulation.ProfileVector
	for i, mean := range spec.Mean {
		profile[i] = Trait(rng, mean, TraitStdDev)
	}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// rand.Rand never fails to read.
		id = uuid.New()
	}
	return simulation.Customer{
		ID:          id.String(),
		Name:        Name(index),
		SegmentID:   segmentID,
		SegmentName: spec.Name,
		Profile:     profile,
		Preference:  RandomUnitVector(rng, vecmath.EmbeddingDimension),
	}
}

// Trait draws from a normal distribution and clips the value to [0,1].
func Trait(rng *rand.Rand, mean, stdDev float64) float64 {
	return math.Max(0, math.Min(1, mean+rng.NormFloat64()*stdDev))
}

// RandomUnitVector returns a vector with components uniform in [-0.5,0.5),
// scaled to unit length.
func RandomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for {
		for i := range v {
			v[i] = float32(rng.Float64() - 0.5)
		}
		if vecmath.NormalizeInPlace(v) == nil {
			return v
		}
	}
}

var (
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
		"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
		"Walker", "Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
		"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell", "Carter", "Roberts",
	}
	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda", "David", "Elizabeth",
		"William", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen",
		"Daniel", "Lisa", "Matthew", "Nancy", "Anthony", "Betty", "Mark", "Sandra", "Steven", "Ashley",
	}
)

// Name returns the deterministic display name for a corpus index.
func Name(index int) string {
	last := lastNames[index%len(lastNames)]
	first := firstNames[(index/len(lastNames))%len(firstNames)]
	return first + " " + last
}
