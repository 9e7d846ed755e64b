package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/corpus"
	"github.com/reviewsim/reviewsim/internal/logging"
)

func newSeedCmd() *cobra.Command {
	var (
		perSegment int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate the synthetic customer corpus",
		Long: `Replace the customer corpus with a freshly generated one: four segments
(Price Sensitive, Quality Focused, Design Lovers, Brand Loyal), each customer
with a behavioral profile drawn around the segment mean and a random
preference vector. The same seed always produces the same corpus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("per-segment") {
				perSegment = a.cfg.Corpus.CustomersPerSegment
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Corpus.Seed
			}

			var bar *progressbar.ProgressBar
			opts := corpus.Options{
				CustomersPerSegment: perSegment,
				Seed:                seed,
				Logger:              logging.Component(a.logger, "corpus"),
			}
			gen := corpus.NewGenerator(a.store, opts)
			if logging.IsTerminal(os.Stderr) {
				bar = progressbar.NewOptions(gen.Total(),
					progressbar.OptionSetDescription("  Generating customers"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				opts.OnProgress = func(done, _ int) { _ = bar.Set(done) }
				gen = corpus.NewGenerator(a.store, opts)
			}

			res, err := gen.Seed(cmd.Context())
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d customers across %d segments (seed %d)\n", res.Customers, res.Segments, seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&perSegment, "per-segment", corpus.DefaultCustomersPerSegment, "customers per segment")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")

	return cmd
}
