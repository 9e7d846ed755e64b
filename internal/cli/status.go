package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the corpus, embedder and database state for the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			stats, err := a.runner.CustomerStats(ctx)
			if err != nil {
				return err
			}
			recent, err := a.runner.Recent(ctx, 1)
			if err != nil {
				return err
			}

			health, err := a.db.Health(ctx)
			if err != nil {
				return err
			}

			name := a.project.Project.Name
			if name == "" {
				name = a.root
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nProject:   %s\n", name)
			fmt.Fprintf(out, "Customers: %d total", stats.Total)
			if len(stats.Segments) > 0 {
				fmt.Fprintf(out, " (")
				for i, seg := range stats.Segments {
					if i > 0 {
						fmt.Fprintf(out, ", ")
					}
					fmt.Fprintf(out, "%d %s", seg.Count, seg.Name)
				}
				fmt.Fprintf(out, ")")
			}
			fmt.Fprintln(out)

			embedder := a.cfg.Embedder.Provider
			if a.cfg.Embedder.Model != "" && embedder != "hashing" {
				embedder += ":" + a.cfg.Embedder.Model
			}
			fmt.Fprintf(out, "Embedder:  %s (cache %s)\n", embedder, a.cfg.Embedder.Cache)

			ranker := a.cfg.Simulation.Ranker
			if a.vectors != nil {
				n, err := a.vectors.CountCustomerEmbeddings(ctx)
				if err == nil {
					ranker += fmt.Sprintf(", %d vectors indexed", n)
				}
			} else {
				ranker += ", sqlite-vec unavailable: " + health.VectorReason
			}
			fmt.Fprintf(out, "Ranker:    %s\n", ranker)

			if len(recent) > 0 {
				fmt.Fprintf(out, "Last run:  %s %s (%s)\n", recent[0].CreatedAt.Format("2006-01-02 15:04"), recent[0].ProductName, recent[0].Status)
			}
			fmt.Fprintf(out, "DB size:   %s (schema v%d)\n\n", formatBytes(health.SizeBytes), health.SchemaVersion)
			return nil
		},
	}
}
