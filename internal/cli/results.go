package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/export"
)

func newResultsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "results <simulation-id>",
		Short: "Show the results of a simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.runner.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rep, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, "+strings.Join(export.ValidFormats(), ", "))

	return cmd
}

func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent simulations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			recent, err := a.runner.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderRecent(cmd.OutOrStdout(), recent)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of simulations to list")

	return cmd
}

