package embed

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// OpenAI embeds text with the OpenAI embeddings API, asking the model for
// vectors of vecmath.EmbeddingDimension directly.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAI creates an OpenAI embedder. If apiKey is empty, OPENAI_API_KEY is
// used. An empty model selects text-embedding-3-small; a non-empty baseURL
// points the client at an OpenAI-compatible server.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

// Name implements Embedder.
func (o *OpenAI) Name() string { return ProviderOpenAI + ":" + string(o.model) }

// Dimension implements Embedder.
func (o *OpenAI) Dimension() int { return vecmath.EmbeddingDimension }

// Embed implements Embedder.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      o.model,
		Dimensions: vecmath.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// The API reports each vector's input index; do not rely on response order.
	result := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embed: index %d out of range", d.Index)
		}
		result[d.Index] = d.Embedding
	}
	return result, nil
}
