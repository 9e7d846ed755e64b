package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

// Hashing is an offline embedder that maps word unigrams and bigrams into
// vecmath.EmbeddingDimension buckets with a signed feature hash. It needs no
// model or network and is deterministic, which makes it the embedder of
// choice for tests and air-gapped runs. Its vectors only capture lexical
// overlap.
type Hashing struct {
	tokenPattern *regexp.Regexp
}

// NewHashing creates a Hashing embedder.
func NewHashing() *Hashing {
	return &Hashing{tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`)}
}

// Name implements Embedder.
func (h *Hashing) Name() string { return ProviderHashing }

// Dimension implements Embedder.
func (h *Hashing) Dimension() int { return vecmath.EmbeddingDimension }

// Embed implements Embedder. Texts without any word characters produce a
// zero vector.
func (h *Hashing) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, vecmath.EmbeddingDimension)
	tokens := h.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	// A zero vector stays zero; callers reject it as degenerate.
	_ = vecmath.NormalizeInPlace(v)
	return v
}

func (h *Hashing) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(len(v)))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}
