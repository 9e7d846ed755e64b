// Package cli defines the Cobra command tree for the reviewsim CLI.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Persistent flags.
var (
	flagLogLevel string
	flagRoot     string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviewsim",
	Short: "Simulate customer reviews for a product before it launches",
	Long: `reviewsim predicts how a population of synthetic customers would rate and
review a product, from nothing more than its description.

It embeds the description, ranks customers by how well their preferences
match, predicts a star rating for each, writes a short review in their voice
and scores the product's market fit.

Run 'reviewsim init' and 'reviewsim seed' in any directory to get started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flagRoot, "root", "r", "", "project root (default: nearest directory containing .reviewsim/)")

	rootCmd.AddCommand(
		newInitCmd(),
		newSeedCmd(),
		newSimulateCmd(),
		newResultsCmd(),
		newRecentCmd(),
		newStatusCmd(),
		newExportCmd(),
		newServeCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewsim %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
