package embed

import (
	"context"
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultMaxTokens is the input budget for embedding models. all-minilm
// accepts 256 word pieces; cl100k tokens are a close enough proxy.
const DefaultMaxTokens = 256

// Tokenizer wraps tiktoken for approximate token counting.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates a Tokenizer using the cl100k_base encoding.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the approximate number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// Truncate truncates s to at most maxTokens tokens, returning the result.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return t.enc.Decode(tokens[:maxTokens])
}

// Truncator is an Embedder that clips each text to a token budget before
// passing it on, so long product descriptions do not fail or get silently
// cut by the provider.
type Truncator struct {
	inner     Embedder
	tok       *Tokenizer
	maxTokens int

	// OnTruncate, if set, is called with the original and kept token counts.
	OnTruncate func(original, kept int)
}

// NewTruncator wraps inner. maxTokens <= 0 uses DefaultMaxTokens.
func NewTruncator(inner Embedder, tok *Tokenizer, maxTokens int) *Truncator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Truncator{inner: inner, tok: tok, maxTokens: maxTokens}
}

// Name implements Embedder.
func (t *Truncator) Name() string { return t.inner.Name() }

// Dimension implements Embedder.
func (t *Truncator) Dimension() int { return t.inner.Dimension() }

// Embed implements Embedder.
func (t *Truncator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	clipped := make([]string, len(texts))
	for i, s := range texts {
		n := t.tok.Count(s)
		if n <= t.maxTokens {
			clipped[i] = s
			continue
		}
		clipped[i] = t.tok.Truncate(s, t.maxTokens)
		if t.OnTruncate != nil {
			t.OnTruncate(n, t.maxTokens)
		}
	}
	return t.inner.Embed(ctx, clipped)
}
