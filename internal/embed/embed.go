// Package embed turns product descriptions into 384-dimensional unit vectors
// that can be compared with customer preference vectors.
package embed

import (
	"context"
	"fmt"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// Provider name constants.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderHashing = "hashing"
)

// Embedder converts a batch of texts into vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}

// Config selects and configures an Embedder.
type Config struct {
	Provider string
	Model    string
	Host     string // Ollama base URL, or an OpenAI-compatible base URL
	APIKey   string
}

// New constructs the Embedder for the configured provider.
//
//   - ollama: Model defaults to all-minilm, Host to http://localhost:11434
//   - openai: Model defaults to text-embedding-3-small, reduced to 384 dims
//   - gemini: Model defaults to text-embedding-004, truncated to 384 dims
//   - hashing: offline feature hashing, no model or network
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllama(cfg.Host, cfg.Model), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.Host), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderHashing:
		return NewHashing(), nil
	default:
		return nil, fmt.Errorf("embed: unknown provider %q; valid providers: ollama, openai, gemini, hashing", cfg.Provider)
	}
}

// EmbedQuery embeds a single text and returns it as a validated unit vector
// of vecmath.EmbeddingDimension.
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: %s returned %d vectors for 1 text", e.Name(), len(vecs))
	}
	if err := vecmath.CheckDimension(vecs[0], vecmath.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("embed: %s: %w", e.Name(), err)
	}
	v, err := vecmath.Normalize(vecs[0])
	if err != nil {
		return nil, fmt.Errorf("embed: %s: %w", e.Name(), err)
	}
	return v, nil
}
