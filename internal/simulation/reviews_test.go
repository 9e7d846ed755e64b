package simulation

import (
	"math/rand"
	"strings"
	"testing"
)

// firstPick always chooses the first template.
type firstPick struct{}

func (firstPick) Intn(int) int { return 0 }

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name string
		in   ReviewInput
		want string
	}{
		{
			name: "all four parts",
			in: ReviewInput{
				Rating: 5, SegmentName: "Quality Focused", Similarity: 0.8,
				Profile: ProfileVector{0.5, 0.9, 0.5, 0.5, 0.5},
			},
			want: "Better than I expected. Excellent build quality! The product's features match my taste. The quality was as expected.",
		},
		{
			name: "base only",
			in:   ReviewInput{Rating: 3, SegmentName: "Unknown", Similarity: 0.5},
			want: "It is okay.",
		},
		{
			name: "price sensitive and poor fit",
			in: ReviewInput{
				Rating: 2, SegmentName: "Price Sensitive", Similarity: 0.1,
				Profile: ProfileVector{0.9, 0.5, 0.5, 0.5, 0.5},
			},
			want: "Disappointing. Not enough quality for the price. The product's features were a bit off from my taste. I am unhappy with it for the price.",
		},
		{
			name: "out of range rating uses three star templates",
			in:   ReviewInput{Rating: 0, SegmentName: "Design Lovers", Similarity: 0.5},
			want: "It is okay.",
		},
		{
			name: "quality sentence wins over price",
			in: ReviewInput{
				Rating: 4, Similarity: 0.5,
				Profile: ProfileVector{0.9, 0.9, 0.5, 0.5, 0.5},
			},
			want: "A good product overall. The quality was as expected.",
		},
		{
			name: "no profile sentence at three stars",
			in: ReviewInput{
				Rating: 3, Similarity: 0.5,
				Profile: ProfileVector{0.9, 0.9, 0.5, 0.5, 0.5},
			},
			want: "It is okay.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.in, firstPick{}); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestSynthesize_SeededIsDeterministic(t *testing.T) {
	in := ReviewInput{Rating: 4, SegmentName: "Brand Loyal", Similarity: 0.75}
	a := Synthesize(in, rand.New(rand.NewSource(42)))
	b := Synthesize(in, rand.New(rand.NewSource(42)))
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}
	if !strings.HasSuffix(a, goodFitSentence) {
		t.Errorf("expected good-fit sentence at the end, got %q", a)
	}
}

func TestSegmentKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Price Sensitive", "price"},
		{"price-sensitive", "price"},
		{"PRICE", "price"},
		{"Quality Focused", "quality"},
		{"Design Lovers", "design"},
		{"Brand Loyal", "brand"},
		{"Bargain Hunters", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SegmentKey(tt.name); got != tt.want {
			t.Errorf("SegmentKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSynthesizeBatch(t *testing.T) {
	inputs := make([]ReviewInput, 200)
	for i := range inputs {
		inputs[i] = ReviewInput{
			CustomerID:  string(rune('A' + i%26)),
			Rating:      i%5 + 1,
			SegmentName: []string{"Price Sensitive", "Quality Focused", "Design Lovers", "Brand Loyal"}[i%4],
			Similarity:  float64(i%10) / 10,
		}
	}

	first := SynthesizeBatch(inputs, 1)
	second := SynthesizeBatch(inputs, 1)
	other := SynthesizeBatch(inputs, 2)

	if len(first) != len(inputs) {
		t.Fatalf("expected %d reviews, got %d", len(inputs), len(first))
	}
	differs := false
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("index %d: same seed produced %+v and %+v", i, first[i], second[i])
		}
		if first[i].CustomerID != inputs[i].CustomerID || first[i].Rating != inputs[i].Rating {
			t.Errorf("index %d: review not aligned with input: %+v", i, first[i])
		}
		if first[i].Text == "" {
			t.Errorf("index %d: empty text", i)
		}
		if first[i] != other[i] {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds produced identical batches")
	}
}

func TestSynthesizeBatch_Empty(t *testing.T) {
	if got := SynthesizeBatch(nil, 1); len(got) != 0 {
		t.Errorf("expected no reviews, got %d", len(got))
	}
}
