package simulation

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// Ranker orders a customer corpus by similarity to a query embedding.
type Ranker interface {
	Rank(ctx context.Context, query []float32, corpus []Customer, limit int) ([]SimilarityRecord, error)
}

// minShardSize keeps tiny corpora on a single goroutine.
const minShardSize = 256

// ExhaustiveRanker scores every customer. The corpus is split into shards
// that are scanned concurrently; ordering happens once, after the merge.
type ExhaustiveRanker struct {
	workers int
}

// NewExhaustiveRanker creates an ExhaustiveRanker. workers <= 0 uses GOMAXPROCS.
func NewExhaustiveRanker(workers int) *ExhaustiveRanker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ExhaustiveRanker{workers: workers}
}

// Rank returns min(limit, len(corpus)) records sorted by similarity
// descending, ties broken by customer ID ascending. limit <= 0 means the
// whole corpus. Query and preference vectors are expected to be unit length.
func (r *ExhaustiveRanker) Rank(ctx context.Context, query []float32, corpus []Customer, limit int) ([]SimilarityRecord, error) {
	if len(corpus) == 0 {
		return []SimilarityRecord{}, nil
	}
	if err := vecmath.CheckDimension(query, vecmath.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("ranker: query: %w", err)
	}

	records := make([]SimilarityRecord, len(corpus))

	shard := (len(corpus) + r.workers - 1) / r.workers
	if shard < minShardSize {
		shard = minShardSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for start := 0; start < len(corpus); start += shard {
		start, end := start, min(start+shard, len(corpus))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				c := corpus[i]
				if err := vecmath.CheckDimension(c.Preference, vecmath.EmbeddingDimension); err != nil {
					return fmt.Errorf("ranker: customer %s: %w", c.ID, err)
				}
				sim, _ := vecmath.Dot(query, c.Preference)
				records[i] = SimilarityRecord{
					CustomerID:  c.ID,
					Similarity:  sim,
					Profile:     c.Profile,
					SegmentName: c.SegmentName,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortRecords(records)
	return truncate(records, limit), nil
}

// SortRecords orders records by similarity descending, then customer ID ascending.
func SortRecords(records []SimilarityRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Similarity != records[j].Similarity {
			return records[i].Similarity > records[j].Similarity
		}
		return records[i].CustomerID < records[j].CustomerID
	})
}

func truncate(records []SimilarityRecord, limit int) []SimilarityRecord {
	if limit > 0 && limit < len(records) {
		return records[:limit]
	}
	return records
}

// Candidate is a customer ID returned by an approximate index, with the
// index's own similarity estimate.
type Candidate struct {
	CustomerID string
	Similarity float64
}

// CandidateIndex is an approximate nearest-neighbour index over preference vectors.
type CandidateIndex interface {
	SearchCustomers(ctx context.Context, query []float32, k int) ([]Candidate, error)
}

// IndexSlack is how many candidates past the limit IndexedRanker requests, so
// customers tied at the cut-off are re-sorted by ID instead of by index order.
const IndexSlack = 16

// IndexedRanker asks a CandidateIndex for the top candidates, re-scores them
// exactly and applies the same ordering as ExhaustiveRanker. When the index
// fails or returns fewer records than the request needs, it falls back to an
// exhaustive scan so no customer is silently dropped.
type IndexedRanker struct {
	index    CandidateIndex
	fallback *ExhaustiveRanker

	// OnFallback, if set, is called with the reason the exhaustive scan was used.
	OnFallback func(reason string)
}

// NewIndexedRanker creates an IndexedRanker.
func NewIndexedRanker(index CandidateIndex, fallback *ExhaustiveRanker) *IndexedRanker {
	if fallback == nil {
		fallback = NewExhaustiveRanker(0)
	}
	return &IndexedRanker{index: index, fallback: fallback}
}

// Rank implements Ranker.
func (r *IndexedRanker) Rank(ctx context.Context, query []float32, corpus []Customer, limit int) ([]SimilarityRecord, error) {
	if len(corpus) == 0 {
		return []SimilarityRecord{}, nil
	}
	if err := vecmath.CheckDimension(query, vecmath.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("ranker: query: %w", err)
	}

	want := len(corpus)
	if limit > 0 && limit < want {
		want = limit
	}

	k := want + IndexSlack
	if k > len(corpus) {
		k = len(corpus)
	}

	candidates, err := r.index.SearchCustomers(ctx, query, k)
	if err != nil {
		r.fellBack(fmt.Sprintf("index search failed: %v", err))
		return r.fallback.Rank(ctx, query, corpus, limit)
	}

	byID := make(map[string]*Customer, len(corpus))
	for i := range corpus {
		byID[corpus[i].ID] = &corpus[i]
	}

	records := make([]SimilarityRecord, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		c, ok := byID[cand.CustomerID]
		if !ok || seen[cand.CustomerID] {
			continue
		}
		seen[cand.CustomerID] = true
		if err := vecmath.CheckDimension(c.Preference, vecmath.EmbeddingDimension); err != nil {
			return nil, fmt.Errorf("ranker: customer %s: %w", c.ID, err)
		}
		sim, _ := vecmath.Dot(query, c.Preference)
		records = append(records, SimilarityRecord{
			CustomerID:  c.ID,
			Similarity:  sim,
			Profile:     c.Profile,
			SegmentName: c.SegmentName,
		})
	}

	if len(records) < want {
		r.fellBack(fmt.Sprintf("index returned %d of %d customers", len(records), want))
		return r.fallback.Rank(ctx, query, corpus, limit)
	}

	SortRecords(records)
	return truncate(records, limit), nil
}

func (r *IndexedRanker) fellBack(reason string) {
	if r.OnFallback != nil {
		r.OnFallback(reason)
	}
}

// Recall returns the fraction of the first k IDs of want that also appear in
// the first k IDs of got. It is used to check an approximate ranking against
// the exhaustive baseline.
func Recall(got, want []SimilarityRecord, k int) float64 {
	if k > len(want) {
		k = len(want)
	}
	if k == 0 {
		return 1
	}
	expected := make(map[string]bool, k)
	for _, r := range want[:k] {
		expected[r.CustomerID] = true
	}
	hits := 0
	for i := 0; i < k && i < len(got); i++ {
		if expected[got[i].CustomerID] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
