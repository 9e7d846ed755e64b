package simulation

import (
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"unicode"
)

// RandSource is the random draw used to pick templates. *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// ReviewInput carries what the synthesizer needs for one customer.
type ReviewInput struct {
	CustomerID  string
	Rating      int
	SegmentName string
	Similarity  float64
	Profile     ProfileVector
}

// Synthesize builds review text from up to four parts joined by a single
// space: a base sentence for the rating, an optional segment sentence, an
// optional similarity-fit sentence and an optional profile sentence.
func Synthesize(in ReviewInput, rng RandSource) string {
	templates, ok := baseTemplates[in.Rating]
	if !ok {
		templates = baseTemplates[3]
	}
	parts := []string{templates[rng.Intn(len(templates))]}

	if byRating, ok := segmentTemplates[SegmentKey(in.SegmentName)]; ok {
		if opts := byRating[in.Rating]; len(opts) > 0 {
			parts = append(parts, opts[rng.Intn(len(opts))])
		}
	}

	switch {
	case in.Similarity > highSimilarity:
		parts = append(parts, goodFitSentence)
	case in.Similarity < lowSimilarity:
		parts = append(parts, poorFitSentence)
	}

	if s := profileSentence(in.Rating, in.Profile); s != "" {
		parts = append(parts, s)
	}

	return strings.Join(parts, " ")
}

func profileSentence(rating int, p ProfileVector) string {
	quality := p.Trait(TraitQualityFocus)
	price := p.Trait(TraitPriceSensitivity)
	switch {
	case rating >= 4:
		if quality > strongTrait {
			return qualitySatisfiedSentence
		}
		if price > strongTrait {
			return priceSatisfiedSentence
		}
	case rating <= 2:
		if quality > strongTrait {
			return qualityDissatisfiedSentence
		}
		if price > strongTrait {
			return priceDissatisfiedSentence
		}
	}
	return ""
}

// SegmentKey normalizes a segment display name ("Price Sensitive",
// "price-sensitive", "PRICE") to a template lookup key. Unknown names map to "".
func SegmentKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return segmentAliases[b.String()]
}

// SynthesizeBatch generates one review per input. Each input draws from its
// own generator seeded from seed and the input's position, so the output is
// reproducible for a given seed regardless of how work is scheduled.
func SynthesizeBatch(inputs []ReviewInput, seed int64) []GeneratedReview {
	out := make([]GeneratedReview, len(inputs))
	if len(inputs) == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(inputs) + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < len(inputs); lo += chunk {
		hi := min(lo+chunk, len(inputs))
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				in := inputs[i]
				rng := rand.New(rand.NewSource(recordSeed(seed, i)))
				out[i] = GeneratedReview{
					CustomerID: in.CustomerID,
					Rating:     in.Rating,
					Text:       Synthesize(in, rng),
				}
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}

// recordSeed mixes the batch seed with a record index (splitmix64 finalizer).
func recordSeed(seed int64, i int) int64 {
	z := uint64(seed) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
