package export

import (
	"fmt"
	"strings"
)

// MarkdownExporter renders the report as a readable markdown document.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	rep := data.Report
	if rep == nil {
		return "", ErrNoReport
	}
	sim, prod := rep.Simulation, rep.Product

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: Simulated Reviews\n\n", prod.Name)
	fmt.Fprintf(&b, "%s\n\n", prod.Description)

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Simulation | `%s` |\n", sim.ID)
	fmt.Fprintf(&b, "| Status | %s |\n", sim.Status)
	fmt.Fprintf(&b, "| Price | %.2f |\n", prod.Price)
	if prod.Category != "" {
		fmt.Fprintf(&b, "| Category | %s |\n", prod.Category)
	}
	fmt.Fprintf(&b, "| Embedder | %s |\n", sim.Embedder)
	fmt.Fprintf(&b, "| Created | %s |\n", sim.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("\n")

	if !rep.Completed() {
		if sim.Error != "" {
			fmt.Fprintf(&b, "> Simulation failed: %s\n", sim.Error)
		}
		return b.String(), nil
	}

	sum := rep.Summary
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Customers: %d\n", sum.TotalCustomers)
	fmt.Fprintf(&b, "- Average rating: %.2f\n", sum.AvgRating)
	fmt.Fprintf(&b, "- Conversion rate: %.2f%%\n", sum.ConversionRate)
	fmt.Fprintf(&b, "- Median %.1f, mode %d, std dev %.2f\n\n", rep.Statistics.Median, rep.Statistics.Mode, rep.Statistics.StdDev)

	if s := rep.Score; s != nil {
		b.WriteString("## Score\n\n")
		fmt.Fprintf(&b, "**%.1f / 100 (grade %s, %s risk)**\n\n", s.OverallScore, s.Grade, s.RiskLevel)
		fmt.Fprintf(&b, "| Satisfaction | Conversion | Market fit |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| %.1f | %.1f | %.1f |\n\n", s.CustomerSatisfaction, s.ConversionPotential, s.MarketFit)
		fmt.Fprintf(&b, "%s\n\n", s.Recommendation)
	}

	b.WriteString("## Rating Distribution\n\n| Stars | Share |\n|---|---|\n")
	for k := 5; k >= 1; k-- {
		fmt.Fprintf(&b, "| %d | %.2f%% |\n", k, sum.Distribution.Bucket(k))
	}
	b.WriteString("\n")

	if len(sum.Segments) > 0 {
		b.WriteString("## Segments\n\n| Segment | Customers | Avg rating |\n|---|---|---|\n")
		for _, seg := range sum.Segments {
			fmt.Fprintf(&b, "| %s | %d | %.2f |\n", seg.SegmentName, seg.CustomerCount, seg.AvgRating)
		}
		b.WriteString("\n")
	}

	if len(rep.Samples) > 0 {
		b.WriteString("## Sample Reviews\n\n")
		for _, r := range rep.Samples {
			fmt.Fprintf(&b, "- %s (%s): %s\n", stars(r.Rating), r.SegmentName, r.Text)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

func stars(n int) string {
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
