package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/corpus"
	"github.com/reviewsim/reviewsim/internal/db"
	"github.com/reviewsim/reviewsim/internal/embed"
	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	st := store.NewStore(database)
	gen := corpus.NewGenerator(st, corpus.Options{CustomersPerSegment: 10, Seed: 3, Logger: zerolog.Nop()})
	if _, err := gen.Seed(context.Background()); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}
	r := runner.New(st, nil, embed.NewHashing(), runner.Options{Seed: 1, Logger: zerolog.Nop()})
	return NewServer(r, zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Router()
	w := do(t, h, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSimulateAndResults(t *testing.T) {
	h := setupServer(t).Router()

	w := do(t, h, http.MethodPost, "/api/simulate", map[string]any{
		"description":  "A compact espresso machine with a steel body",
		"product_name": "Espresso One",
		"price":        249,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("simulate status = %d: %s", w.Code, w.Body.String())
	}
	var created runner.Report
	decode(t, w, &created)
	if created.Simulation.ID == "" || created.TotalReviews != 40 {
		t.Fatalf("unexpected report: id=%q reviews=%d", created.Simulation.ID, created.TotalReviews)
	}

	w = do(t, h, http.MethodGet, "/api/results/"+created.Simulation.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results status = %d", w.Code)
	}
	var results runner.Report
	decode(t, w, &results)
	if results.Product.Name != "Espresso One" {
		t.Errorf("product name = %q", results.Product.Name)
	}
	if results.Summary.AvgRating != created.Summary.AvgRating {
		t.Errorf("avg rating %v != %v", results.Summary.AvgRating, created.Summary.AvgRating)
	}

	w = do(t, h, http.MethodGet, "/api/simulations/"+created.Simulation.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("simulation status = %d", w.Code)
	}
	var got struct {
		Simulation store.Simulation `json:"simulation"`
		Product    store.Product    `json:"product"`
	}
	decode(t, w, &got)
	if got.Simulation.Status != store.StatusCompleted || got.Product.Price != 249 {
		t.Errorf("unexpected simulation: %+v %+v", got.Simulation, got.Product)
	}

	w = do(t, h, http.MethodGet, "/api/simulations/recent", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recent status = %d", w.Code)
	}
	var recent struct {
		Simulations []store.RecentSimulation `json:"simulations"`
	}
	decode(t, w, &recent)
	if len(recent.Simulations) != 1 || recent.Simulations[0].ProductName != "Espresso One" {
		t.Errorf("unexpected recent list: %+v", recent.Simulations)
	}

	w = do(t, h, http.MethodGet, "/api/customers/stats", nil)
	var stats store.CustomerStats
	decode(t, w, &stats)
	if stats.Total != 40 {
		t.Errorf("stats total = %d", stats.Total)
	}
}

func TestSimulate_BadRequests(t *testing.T) {
	h := setupServer(t).Router()
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{not json"},
		{"missing description", map[string]any{"product_name": "x"}},
		{"short description", map[string]any{"description": "tiny"}},
		{"unknown segment", map[string]any{"description": "A compact espresso machine", "segment": "Nobody"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/simulate", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestResults_NotFound(t *testing.T) {
	h := setupServer(t).Router()
	for _, path := range []string{"/api/results/missing", "/api/simulations/missing"} {
		w := do(t, h, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
		}
	}
}

func TestRecent_Limit(t *testing.T) {
	fake := &fakeService{}
	h := NewServer(fake, zerolog.Nop()).Router()

	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, runner.DefaultRecent},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=1000", http.StatusOK, MaxRecent},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			fake.lastLimit = 0
			w := do(t, h, http.MethodGet, "/api/simulations/recent"+tt.query, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if fake.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", fake.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	fake := &fakeService{err: errors.New("disk on fire")}
	h := NewServer(fake, zerolog.Nop()).Router()

	w := do(t, h, http.MethodGet, "/api/customers/stats", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("disk on fire")) {
		t.Error("internal error message leaked to client")
	}
}

type fakeService struct {
	lastLimit int
	err       error
}

func (f *fakeService) Simulate(context.Context, runner.Request) (*runner.Report, error) {
	return nil, f.err
}

func (f *fakeService) Report(_ context.Context, id string) (*runner.Report, error) {
	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (f *fakeService) Simulation(_ context.Context, id string) (store.Simulation, store.Product, error) {
	return store.Simulation{}, store.Product{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (f *fakeService) Recent(_ context.Context, n int) ([]store.RecentSimulation, error) {
	f.lastLimit = n
	return []store.RecentSimulation{}, f.err
}

func (f *fakeService) CustomerStats(context.Context) (store.CustomerStats, error) {
	return store.CustomerStats{}, f.err
}
