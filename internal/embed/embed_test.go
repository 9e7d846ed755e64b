package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// fakeEmbedder returns fixed vectors and counts the texts it was asked for.
type fakeEmbedder struct {
	dim   int
	calls [][]string
	fill  float32
	err   error
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = f.fill
		}
		out[i] = v
	}
	return out, nil
}

func TestNew_Providers(t *testing.T) {
	for _, p := range []string{ProviderOllama, ProviderOpenAI, ProviderHashing, ""} {
		t.Run(p, func(t *testing.T) {
			e, err := New(context.Background(), Config{Provider: p, APIKey: "test-key"})
			if err != nil {
				t.Fatalf("New(%q): %v", p, err)
			}
			if e.Dimension() != vecmath.EmbeddingDimension {
				t.Errorf("dimension: got %d", e.Dimension())
			}
		})
	}
}

func TestNew_InvalidProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "word2vec"})
	if err == nil || !strings.Contains(err.Error(), "word2vec") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestNewOllama_Defaults(t *testing.T) {
	o := NewOllama("", "")
	if o.host != DefaultOllamaHost || o.model != DefaultOllamaModel {
		t.Errorf("defaults not applied: host %q model %q", o.host, o.model)
	}
	if o.Name() != "ollama:all-minilm" {
		t.Errorf("name: got %q", o.Name())
	}
}

func TestOllama_Embed(t *testing.T) {
	var got ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"embeddings":[[1,0],[0,1]]}`)
	}))
	defer server.Close()

	o := NewOllama(server.URL+"/", "all-minilm")
	vecs, err := o.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got.Model != "all-minilm" || len(got.Input) != 2 {
		t.Errorf("request: got %+v", got)
	}
	if len(vecs) != 2 || vecs[1][1] != 1 {
		t.Errorf("vectors: got %v", vecs)
	}
}

func TestOllama_EmbedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusInternalServerError, `{}`},
		{"bad json", http.StatusOK, `{"embeddings":`},
		{"count mismatch", http.StatusOK, `{"embeddings":[[1]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewOllama(server.URL, "").Embed(context.Background(), []string{"a", "b"})
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenAI_Embed(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth header: got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose.
		fmt.Fprint(w, `{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 2]},
				{"object": "embedding", "index": 0, "embedding": [3, 0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`)
	}))
	defer server.Close()

	o := NewOpenAI("test-key", "", server.URL+"/v1")
	vecs, err := o.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got["model"] != "text-embedding-3-small" {
		t.Errorf("model: got %v", got["model"])
	}
	if d, _ := got["dimensions"].(float64); int(d) != vecmath.EmbeddingDimension {
		t.Errorf("dimensions: got %v", got["dimensions"])
	}
	if vecs[0][0] != 3 || vecs[1][1] != 2 {
		t.Errorf("vectors not placed by index: %v", vecs)
	}
}

func TestFitDimension(t *testing.T) {
	long := make([]float32, 768)
	long[0], long[1], long[500] = 3, 4, 100

	got, err := fitDimension(long, vecmath.EmbeddingDimension)
	if err != nil {
		t.Fatalf("fitDimension: %v", err)
	}
	if len(got) != vecmath.EmbeddingDimension {
		t.Fatalf("length: got %d", len(got))
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("expected renormalized prefix, got %v %v", got[0], got[1])
	}

	if _, err := fitDimension(make([]float32, 10), vecmath.EmbeddingDimension); !errors.Is(err, vecmath.ErrDimensionMismatch) {
		t.Errorf("short vector: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEmbedQuery(t *testing.T) {
	ctx := context.Background()

	v, err := EmbedQuery(ctx, &fakeEmbedder{dim: vecmath.EmbeddingDimension, fill: 2}, "x")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if math.Abs(vecmath.Norm(v)-1) > 1e-5 {
		t.Errorf("expected unit vector, norm %v", vecmath.Norm(v))
	}

	if _, err := EmbedQuery(ctx, &fakeEmbedder{dim: 768, fill: 1}, "x"); !errors.Is(err, vecmath.ErrDimensionMismatch) {
		t.Errorf("wrong dimension: got %v", err)
	}
	if _, err := EmbedQuery(ctx, &fakeEmbedder{dim: vecmath.EmbeddingDimension}, "x"); !errors.Is(err, vecmath.ErrDegenerateVector) {
		t.Errorf("zero vector: got %v", err)
	}
	boom := errors.New("boom")
	if _, err := EmbedQuery(ctx, &fakeEmbedder{err: boom}, "x"); !errors.Is(err, boom) {
		t.Errorf("inner error: got %v", err)
	}
}
