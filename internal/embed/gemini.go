package embed

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// DefaultGeminiModel is the Gemini embedding model used when none is configured.
const DefaultGeminiModel = "text-embedding-004"

// Gemini embeds text with the Gemini API. The model's native vectors are
// longer than vecmath.EmbeddingDimension; they are truncated and renormalized.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini embedder. If apiKey is empty, GEMINI_API_KEY is used.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embed: no API key; set GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Name implements Embedder.
func (g *Gemini) Name() string { return ProviderGemini + ":" + g.model }

// Dimension implements Embedder.
func (g *Gemini) Dimension() int { return vecmath.EmbeddingDimension }

// Embed implements Embedder.
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("gemini embed: empty embedding at %d", i)
		}
		v, err := fitDimension(e.Values, vecmath.EmbeddingDimension)
		if err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}
		out[i] = v
	}
	return out, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// fitDimension truncates v to dim entries and renormalizes the result.
func fitDimension(v []float32, dim int) ([]float32, error) {
	if len(v) < dim {
		return nil, &vecmath.DimensionError{Got: len(v), Want: dim}
	}
	return vecmath.Normalize(v[:dim])
}
