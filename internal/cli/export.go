package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		output  string
		reviews bool
	)

	cmd := &cobra.Command{
		Use:   "export <simulation-id>",
		Short: "Export simulation results as JSON, Markdown, YAML or CSV",
		Long: `Render a simulation report in a format for other tools. Output is written
to stdout unless --output is given.

Examples:
  reviewsim export 3f2a... --format markdown > report.md
  reviewsim export 3f2a... --format csv --output reviews.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, ok := export.Get(strings.ToLower(format))
			if !ok {
				return fmt.Errorf("unknown format %q; valid formats: %s",
					format, strings.Join(export.ValidFormats(), ", "))
			}

			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.runner.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data := export.ExportData{Report: rep}
			// CSV is one row per review, so it always carries all of them.
			if reviews || strings.EqualFold(format, "csv") {
				data.Reviews, err = a.store.ListReviews(cmd.Context(), rep.Simulation.ID)
				if err != nil {
					return err
				}
			}

			result, err := exporter.Export(data)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), result)
				return nil
			}
			if err := os.WriteFile(output, []byte(result), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: "+strings.Join(export.ValidFormats(), ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&reviews, "reviews", false, "include every predicted review (json, yaml)")

	return cmd
}
