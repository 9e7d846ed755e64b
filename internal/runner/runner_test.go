package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/config"
	"github.com/reviewsim/reviewsim/internal/corpus"
	"github.com/reviewsim/reviewsim/internal/db"
	"github.com/reviewsim/reviewsim/internal/embed"
	"github.com/reviewsim/reviewsim/internal/store"
)

const testDescription = "Lightweight wireless earbuds with long battery life and a premium finish"

func setupTestDB(t *testing.T) (*db.DB, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, store.NewStore(database)
}

func setupRunner(t *testing.T, perSegment int, opts Options) (*Runner, *store.Store) {
	t.Helper()
	database, st := setupTestDB(t)
	gen := corpus.NewGenerator(st, corpus.Options{CustomersPerSegment: perSegment, Seed: 7, Logger: zerolog.Nop()})
	if _, err := gen.Seed(context.Background()); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}
	opts.Logger = zerolog.Nop()
	return New(st, store.NewVectorStore(database), embed.NewHashing(), opts), st
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string   { return "failing" }
func (failingEmbedder) Dimension() int { return 384 }
func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedder offline")
}

func TestRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Description: testDescription}, false},
		{"empty description", Request{}, true},
		{"whitespace description", Request{Description: "          "}, true},
		{"short description", Request{Description: "too short"}, true},
		{"negative price", Request{Description: testDescription, Price: -1}, true},
		{"negative limit", Request{Description: testDescription, Limit: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRequest_NormalizeDefaults(t *testing.T) {
	req, err := Request{Description: "  " + testDescription + "  ", Name: "  "}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Name != DefaultProductName {
		t.Errorf("expected default name, got %q", req.Name)
	}
	if req.Price != DefaultPrice {
		t.Errorf("expected default price, got %v", req.Price)
	}
	if req.Description != testDescription {
		t.Errorf("description not trimmed: %q", req.Description)
	}
}

func TestRunner_Simulate(t *testing.T) {
	r, st := setupRunner(t, 25, Options{Seed: 1})
	ctx := context.Background()

	rep, err := r.Simulate(ctx, Request{Description: testDescription, Name: "Earbuds", Price: 79.99, Category: "audio"})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if !rep.Completed() {
		t.Fatalf("expected COMPLETED, got %s (%s)", rep.Simulation.Status, rep.Simulation.Error)
	}
	if rep.Product.Name != "Earbuds" || rep.Product.Category != "audio" {
		t.Errorf("unexpected product: %+v", rep.Product)
	}
	if rep.TotalReviews != 100 {
		t.Errorf("expected 100 reviews, got %d", rep.TotalReviews)
	}
	if rep.Summary.TotalCustomers != 100 {
		t.Errorf("expected 100 customers in summary, got %d", rep.Summary.TotalCustomers)
	}
	if rep.Simulation.TotalCustomers != 100 {
		t.Errorf("stored total_customers = %d", rep.Simulation.TotalCustomers)
	}
	if rep.Simulation.AvgRating != rep.Summary.AvgRating {
		t.Errorf("stored avg %v != recomputed %v", rep.Simulation.AvgRating, rep.Summary.AvgRating)
	}
	if len(rep.Summary.Segments) != len(corpus.DefaultSegments) {
		t.Errorf("expected %d segments, got %d", len(corpus.DefaultSegments), len(rep.Summary.Segments))
	}
	if rep.Score == nil || rep.Score.Grade == "" {
		t.Fatalf("expected a graded score, got %+v", rep.Score)
	}
	if rep.Simulation.Grade != rep.Score.Grade {
		t.Errorf("stored grade %q != %q", rep.Simulation.Grade, rep.Score.Grade)
	}
	if len(rep.Samples) == 0 || len(rep.Samples) > 5 {
		t.Errorf("expected 1-5 sample reviews, got %d", len(rep.Samples))
	}
	for i := 1; i < len(rep.Samples); i++ {
		if rep.Samples[i].Rating >= rep.Samples[i-1].Rating {
			t.Errorf("samples not ordered by rating desc: %d then %d", rep.Samples[i-1].Rating, rep.Samples[i].Rating)
		}
	}
	var histTotal int
	for _, b := range rep.Histogram {
		histTotal += b.Count
	}
	if histTotal != 100 {
		t.Errorf("histogram counts sum to %d, want 100", histTotal)
	}
	if rep.Simulation.Embedder != embed.ProviderHashing {
		t.Errorf("embedder = %q", rep.Simulation.Embedder)
	}

	reviews, err := st.ListReviews(ctx, rep.Simulation.ID)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	for _, rv := range reviews {
		if rv.Text == "" {
			t.Fatalf("review for %s has no text", rv.CustomerID)
		}
	}
}

func TestRunner_SimulateLimit(t *testing.T) {
	r, _ := setupRunner(t, 25, Options{Seed: 1, Limit: 40})
	ctx := context.Background()

	rep, err := r.Simulate(ctx, Request{Description: testDescription})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if rep.TotalReviews != 40 {
		t.Errorf("configured limit: expected 40 reviews, got %d", rep.TotalReviews)
	}

	rep, err = r.Simulate(ctx, Request{Description: testDescription, Limit: 10})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if rep.TotalReviews != 10 {
		t.Errorf("request limit: expected 10 reviews, got %d", rep.TotalReviews)
	}
}

func TestRunner_SimulateSegment(t *testing.T) {
	r, st := setupRunner(t, 20, Options{Seed: 1})
	ctx := context.Background()
	segment := corpus.DefaultSegments[1].Name

	rep, err := r.Simulate(ctx, Request{Description: testDescription, Segment: segment})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if rep.TotalReviews != 20 {
		t.Fatalf("expected 20 reviews, got %d", rep.TotalReviews)
	}
	reviews, err := st.ListReviews(ctx, rep.Simulation.ID)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	for _, rv := range reviews {
		if rv.SegmentName != segment {
			t.Fatalf("review from segment %q leaked into %q run", rv.SegmentName, segment)
		}
	}
}

func TestRunner_SimulateUnknownSegmentMarksFailed(t *testing.T) {
	r, _ := setupRunner(t, 5, Options{Seed: 1})
	ctx := context.Background()

	_, err := r.Simulate(ctx, Request{Description: testDescription, Segment: "Nobody"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	recent, err := r.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recorded simulation, got %d", len(recent))
	}
	if recent[0].Status != store.StatusFailed || recent[0].Error == "" {
		t.Errorf("expected FAILED with error, got %s %q", recent[0].Status, recent[0].Error)
	}

	rep, err := r.Report(ctx, recent[0].ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Completed() || rep.Score != nil || rep.TotalReviews != 0 {
		t.Errorf("failed simulation should have an empty report, got %+v", rep)
	}
}

func TestRunner_SimulateEmbedFailureRecordsNothing(t *testing.T) {
	_, st := setupTestDB(t)
	r := New(st, nil, failingEmbedder{}, Options{Logger: zerolog.Nop()})
	ctx := context.Background()

	if _, err := r.Simulate(ctx, Request{Description: testDescription}); err == nil {
		t.Fatal("expected embedding error")
	}
	recent, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no simulations, got %d", len(recent))
	}
}

func TestRunner_SimulateEmptyCorpus(t *testing.T) {
	_, st := setupTestDB(t)
	r := New(st, nil, embed.NewHashing(), Options{Seed: 3, Logger: zerolog.Nop()})

	rep, err := r.Simulate(context.Background(), Request{Description: testDescription})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !rep.Completed() {
		t.Fatalf("expected COMPLETED, got %s", rep.Simulation.Status)
	}
	if rep.TotalReviews != 0 || rep.Summary.AvgRating != 0 {
		t.Errorf("expected an empty result, got %d reviews avg %v", rep.TotalReviews, rep.Summary.AvgRating)
	}
}

func TestRunner_SimulateDeterministic(t *testing.T) {
	r, st := setupRunner(t, 15, Options{})
	ctx := context.Background()

	a, err := r.Simulate(ctx, Request{Description: testDescription, Seed: 99})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	b, err := r.Simulate(ctx, Request{Description: testDescription, Seed: 99})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if a.Simulation.Seed != 99 {
		t.Errorf("seed not recorded: %d", a.Simulation.Seed)
	}

	ra, _ := st.ListReviews(ctx, a.Simulation.ID)
	rb, _ := st.ListReviews(ctx, b.Simulation.ID)
	if len(ra) != len(rb) {
		t.Fatalf("review counts differ: %d vs %d", len(ra), len(rb))
	}
	texts := make(map[string]string, len(ra))
	for _, rv := range ra {
		texts[rv.CustomerID] = rv.Text
	}
	for _, rv := range rb {
		if texts[rv.CustomerID] != rv.Text {
			t.Fatalf("customer %s got different text across identical runs", rv.CustomerID)
		}
	}
	if *a.Score != *b.Score {
		t.Errorf("scores differ: %+v vs %+v", a.Score, b.Score)
	}
}

func TestRunner_IndexedRankerMatchesExhaustive(t *testing.T) {
	database, st := setupTestDB(t)
	if !database.VectorEnabled() {
		t.Skip("sqlite-vec unavailable")
	}
	gen := corpus.NewGenerator(st, corpus.Options{CustomersPerSegment: 10, Seed: 11, Logger: zerolog.Nop()})
	if _, err := gen.Seed(context.Background()); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}
	vs := store.NewVectorStore(database)
	e := embed.NewHashing()
	ctx := context.Background()
	req := Request{Description: testDescription, Seed: 5, Limit: 10}

	exhaustive := New(st, vs, e, Options{Ranker: config.RankerExhaustive, Logger: zerolog.Nop()})
	indexed := New(st, vs, e, Options{Ranker: config.RankerIndexed, Logger: zerolog.Nop()})

	a, err := exhaustive.Simulate(ctx, req)
	if err != nil {
		t.Fatalf("exhaustive Simulate: %v", err)
	}
	b, err := indexed.Simulate(ctx, req)
	if err != nil {
		t.Fatalf("indexed Simulate: %v", err)
	}
	if a.TotalReviews != b.TotalReviews {
		t.Errorf("review counts differ: %d vs %d", a.TotalReviews, b.TotalReviews)
	}
	if a.Summary.AvgRating != b.Summary.AvgRating {
		t.Errorf("avg rating differs: %v vs %v", a.Summary.AvgRating, b.Summary.AvgRating)
	}
}

func TestRunner_ReportNotFound(t *testing.T) {
	_, st := setupTestDB(t)
	r := New(st, nil, embed.NewHashing(), Options{Logger: zerolog.Nop()})
	_, err := r.Report(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunner_CustomerStats(t *testing.T) {
	r, _ := setupRunner(t, 3, Options{})
	stats, err := r.CustomerStats(context.Background())
	if err != nil {
		t.Fatalf("CustomerStats: %v", err)
	}
	if stats.Total != 12 {
		t.Errorf("expected 12 customers, got %d", stats.Total)
	}
}
