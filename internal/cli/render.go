package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/simulation"
	"github.com/reviewsim/reviewsim/internal/store"
)

const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	riskStyles = map[simulation.RiskLevel]lipgloss.Style{
		simulation.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		simulation.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		simulation.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
	statusStyles = map[store.SimulationStatus]lipgloss.Style{
		store.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		store.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		store.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// renderReport writes a terminal summary of rep.
func renderReport(w io.Writer, rep *runner.Report) {
	sim, prod := rep.Simulation, rep.Product

	fmt.Fprintln(w, titleStyle.Render(prod.Name))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s  ·  %s  ·  %s", sim.ID, sim.Embedder, sim.CreatedAt.Format("2006-01-02 15:04"))))
	fmt.Fprintln(w)

	if !rep.Completed() {
		fmt.Fprintf(w, "Status: %s\n", statusStyles[sim.Status].Render(string(sim.Status)))
		if sim.Error != "" {
			fmt.Fprintf(w, "Error:  %s\n", sim.Error)
		}
		return
	}

	sum := rep.Summary
	if s := rep.Score; s != nil {
		headline := fmt.Sprintf("Score %.1f  ·  Grade %s  ·  Risk %s",
			s.OverallScore, s.Grade, riskStyles[s.RiskLevel].Render(string(s.RiskLevel)))
		fmt.Fprintln(w, boxStyle.Render(headline+"\n"+s.Recommendation))
	}
	fmt.Fprintf(w, "Customers %d  ·  Avg %.2f  ·  Conversion %.1f%%  ·  Median %.1f  ·  Std dev %.2f\n\n",
		sum.TotalCustomers, sum.AvgRating, sum.ConversionRate, rep.Statistics.Median, rep.Statistics.StdDev)

	fmt.Fprintln(w, titleStyle.Render("Ratings"))
	for k := 5; k >= 1; k-- {
		pct := sum.Distribution.Bucket(k)
		fmt.Fprintf(w, "  %d★ %s %5.1f%%\n", k, bar(pct, 100), pct)
	}
	fmt.Fprintln(w)

	if len(sum.Segments) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Segments"))
		for _, seg := range sum.Segments {
			fmt.Fprintf(w, "  %-16s %5d customers  avg %.2f\n", seg.SegmentName, seg.CustomerCount, seg.AvgRating)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Histogram) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Similarity"))
		peak := 0
		for _, b := range rep.Histogram {
			peak = max(peak, b.Count)
		}
		for _, b := range rep.Histogram {
			fmt.Fprintf(w, "  %5.1f %s %d\n", b.Lower, bar(float64(b.Count), float64(peak)), b.Count)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Samples) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Sample reviews"))
		for _, r := range rep.Samples {
			fmt.Fprintf(w, "  %d★ %s %s\n", r.Rating, r.Text, mutedStyle.Render("("+r.SegmentName+")"))
		}
	}
}

// renderRecent writes one line per simulation.
func renderRecent(w io.Writer, recent []store.RecentSimulation) {
	if len(recent) == 0 {
		fmt.Fprintln(w, "No simulations yet. Run `reviewsim simulate --description \"...\"`.")
		return
	}
	for _, r := range recent {
		status := statusStyles[r.Status].Render(fmt.Sprintf("%-9s", r.Status))
		line := fmt.Sprintf("%s  %s  %s", mutedStyle.Render(r.CreatedAt.Format("2006-01-02 15:04")), r.ID, status)
		if r.Status == store.StatusCompleted {
			line += fmt.Sprintf("  %3s %5.1f  avg %.2f", r.Grade, r.OverallScore, r.AvgRating)
		}
		fmt.Fprintf(w, "%s  %s\n", line, r.ProductName)
	}
}

func bar(v, full float64) string {
	n := 0
	if full > 0 {
		n = int(v / full * barWidth)
	}
	n = max(0, min(barWidth, n))
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
}
