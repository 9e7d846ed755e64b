package simulation

import (
	"fmt"
	"strings"
)

// RiskLevel classifies the launch risk of a product.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Score weights.
const (
	satisfactionWeight = 0.4
	conversionWeight   = 0.35
	marketFitWeight    = 0.25
	varianceScale      = 50
	segmentGapAlert    = 1.0
)

// ProductScore is the composite verdict derived from a SimulationSummary.
// All scores are on a 0-100 scale, rounded to one decimal.
type ProductScore struct {
	OverallScore         float64   `json:"overall_score" yaml:"overall_score"`
	MarketFit            float64   `json:"market_fit" yaml:"market_fit"`
	CustomerSatisfaction float64   `json:"customer_satisfaction" yaml:"customer_satisfaction"`
	ConversionPotential  float64   `json:"conversion_potential" yaml:"conversion_potential"`
	RiskLevel            RiskLevel `json:"risk_level" yaml:"risk_level"`
	Recommendation       string    `json:"recommendation" yaml:"recommendation"`
	Grade                string    `json:"grade" yaml:"grade"`
}

// Score reduces a summary to a ProductScore.
func Score(summary SimulationSummary) ProductScore {
	satisfaction := (summary.AvgRating - 1) / 4 * 100
	conversion := summary.Distribution.Star4 + summary.Distribution.Star5

	// Lower variance between segment averages means a broader market fit.
	marketFit := max(0, 100-segmentVariance(summary.Segments)*varianceScale)

	overall := satisfaction*satisfactionWeight +
		conversion*conversionWeight +
		marketFit*marketFitWeight

	var risk RiskLevel
	switch {
	case summary.AvgRating >= 4 && conversion >= 60:
		risk = RiskLow
	case summary.AvgRating >= 3 && conversion >= 40:
		risk = RiskMedium
	default:
		risk = RiskHigh
	}

	overall = round1(overall)
	return ProductScore{
		OverallScore:         overall,
		MarketFit:            round1(marketFit),
		CustomerSatisfaction: round1(satisfaction),
		ConversionPotential:  round1(conversion),
		RiskLevel:            risk,
		Recommendation:       recommend(summary),
		Grade:                Grade(overall),
	}
}

// segmentVariance is the population variance of the segment average ratings.
func segmentVariance(segments []SegmentAnalysis) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.AvgRating
	}
	mean := sum / float64(len(segments))
	var sq float64
	for _, s := range segments {
		d := s.AvgRating - mean
		sq += d * d
	}
	return sq / float64(len(segments))
}

func recommend(summary SimulationSummary) string {
	var parts []string
	switch {
	case summary.AvgRating >= 4.5:
		parts = append(parts, "Very strong reception expected. An aggressive market launch is recommended.")
	case summary.AvgRating >= 4:
		parts = append(parts, "Good reception expected. Launch with a clearly defined target audience.")
	case summary.AvgRating >= 3:
		parts = append(parts, "There is room for improvement. Adjust the product based on customer feedback.")
	default:
		parts = append(parts, "Major improvements are needed. Consider revisiting the concept.")
	}

	if len(summary.Segments) > 0 {
		best, worst := summary.Segments[0], summary.Segments[0]
		for _, s := range summary.Segments[1:] {
			if s.AvgRating > best.AvgRating {
				best = s
			}
			if s.AvgRating < worst.AvgRating {
				worst = s
			}
		}
		if best.AvgRating-worst.AvgRating > segmentGapAlert {
			parts = append(parts, fmt.Sprintf(
				"Messaging works best for the %q segment. Rethink the approach for the %q segment.",
				best.SegmentName, worst.SegmentName))
		}
	}

	return strings.Join(parts, " ")
}

// Grade maps an overall score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "S"
	case score >= 75:
		return "A"
	case score >= 60:
		return "B"
	case score >= 40:
		return "C"
	default:
		return "D"
	}
}
