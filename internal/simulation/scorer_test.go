package simulation

import (
	"math"
	"strings"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_WorkedExample(t *testing.T) {
	got := Score(Aggregate(ratingsOf("X", 5, 5, 4, 3, 1)))

	if !near(got.CustomerSatisfaction, 65) {
		t.Errorf("satisfaction: got %v, want 65", got.CustomerSatisfaction)
	}
	if !near(got.ConversionPotential, 60) {
		t.Errorf("conversion: got %v, want 60", got.ConversionPotential)
	}
	if !near(got.MarketFit, 100) {
		t.Errorf("market fit: got %v, want 100", got.MarketFit)
	}
	if !near(got.OverallScore, 72) {
		t.Errorf("overall: got %v, want 72", got.OverallScore)
	}
	if got.RiskLevel != RiskMedium {
		t.Errorf("risk: got %s, want MEDIUM", got.RiskLevel)
	}
	if got.Grade != "B" {
		t.Errorf("grade: got %s, want B", got.Grade)
	}
	if !strings.HasPrefix(got.Recommendation, "There is room for improvement.") {
		t.Errorf("recommendation: got %q", got.Recommendation)
	}
}

func TestScore_SegmentGap(t *testing.T) {
	summary := SimulationSummary{
		TotalCustomers: 4,
		AvgRating:      3.25,
		Distribution:   Distribution{Star2: 50, Star4: 25, Star5: 25},
		Segments: []SegmentAnalysis{
			{SegmentName: "Fans", AvgRating: 4.5},
			{SegmentName: "Skeptics", AvgRating: 2.0},
		},
	}
	got := Score(summary)

	// Variance of {4.5, 2.0} is 1.5625, so fit is 100 - 78.125.
	if !near(got.MarketFit, 21.9) {
		t.Errorf("market fit: got %v, want 21.9", got.MarketFit)
	}
	if !strings.Contains(got.Recommendation, `"Fans"`) || !strings.Contains(got.Recommendation, `"Skeptics"`) {
		t.Errorf("expected best and worst segment named, got %q", got.Recommendation)
	}
}

func TestScore_MarketFitNeverNegative(t *testing.T) {
	got := Score(SimulationSummary{
		AvgRating: 3,
		Segments: []SegmentAnalysis{
			{SegmentName: "a", AvgRating: 5},
			{SegmentName: "b", AvgRating: 1},
		},
	})
	if got.MarketFit != 0 {
		t.Errorf("market fit: got %v, want 0", got.MarketFit)
	}
}

func TestScore_Risk(t *testing.T) {
	tests := []struct {
		name string
		avg  float64
		dist Distribution
		want RiskLevel
	}{
		{"strong", 4.2, Distribution{Star4: 30, Star5: 40}, RiskLow},
		{"high average low conversion", 4.1, Distribution{Star4: 20, Star5: 30}, RiskMedium},
		{"middling", 3.1, Distribution{Star4: 25, Star5: 15}, RiskMedium},
		{"weak", 2.5, Distribution{Star4: 50}, RiskHigh},
		{"ok average poor conversion", 3.5, Distribution{Star4: 20, Star5: 10}, RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(SimulationSummary{AvgRating: tt.avg, Distribution: tt.dist})
			if got.RiskLevel != tt.want {
				t.Errorf("got %s, want %s", got.RiskLevel, tt.want)
			}
		})
	}
}

func TestScore_RecommendationTiers(t *testing.T) {
	tests := []struct {
		avg    float64
		prefix string
	}{
		{4.6, "Very strong reception expected."},
		{4.0, "Good reception expected."},
		{3.0, "There is room for improvement."},
		{2.9, "Major improvements are needed."},
	}
	for _, tt := range tests {
		got := Score(SimulationSummary{AvgRating: tt.avg})
		if !strings.HasPrefix(got.Recommendation, tt.prefix) {
			t.Errorf("avg %v: got %q, want prefix %q", tt.avg, got.Recommendation, tt.prefix)
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "S"}, {90, "S"}, {89.9, "A"}, {75, "A"}, {74.9, "B"},
		{60, "B"}, {59.9, "C"}, {40, "C"}, {39.9, "D"}, {0, "D"},
	}
	for _, tt := range tests {
		if got := Grade(tt.score); got != tt.want {
			t.Errorf("Grade(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
