package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/catalog"
	"github.com/reviewsim/reviewsim/internal/export"
	"github.com/reviewsim/reviewsim/internal/logging"
	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

type simulateFlags struct {
	description string
	file        string
	dir         string
	watch       bool
	debounceMs  int
	name        string
	price       float64
	category    string
	segment     string
	limit       int
	seed        int64
	format      string
}

func newSimulateCmd() *cobra.Command {
	var f simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate [description]",
		Short: "Simulate customer reviews for a product",
		Long: `Run a simulation for one product, a product file, or a directory of product
files. Product files are YAML or JSON with name, description, price, category
and segment fields, or markdown/text whose first line is the product name.
Files listed in .reviewsimignore are skipped.

With --watch, product files in --dir are re-simulated whenever they change.

Examples:
  reviewsim simulate "Insulated steel mug that keeps coffee hot for 12 hours"
  reviewsim simulate --file products/mug.yaml --format json
  reviewsim simulate --dir products --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.description == "" && len(args) > 0 {
				f.description = strings.Join(args, " ")
			}

			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			if f.dir == "" && f.watch {
				f.dir = a.project.Catalog.Dir
				if f.dir != "" && !filepath.IsAbs(f.dir) {
					f.dir = filepath.Join(a.root, f.dir)
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case f.dir != "":
				return simulateDir(cmd, a, f, out)
			case f.file != "":
				p, err := catalog.Load(f.file)
				if err != nil {
					return err
				}
				return simulateOne(cmd.Context(), a, f.apply(cmd, p.Request()), f.format, out)
			case f.description != "":
				return simulateOne(cmd.Context(), a, f.apply(cmd, runner.Request{Description: f.description}), f.format, out)
			default:
				return errors.New("nothing to simulate: pass a description, --file or --dir")
			}
		},
	}

	cmd.Flags().StringVarP(&f.description, "description", "d", "", "product description")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "product file (yaml, json, md or txt)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory of product files")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-simulate product files in --dir when they change")
	cmd.Flags().IntVar(&f.debounceMs, "debounce", 500, "watch debounce interval in milliseconds")
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().Float64Var(&f.price, "price", 0, "product price")
	cmd.Flags().StringVar(&f.category, "category", "", "product category")
	cmd.Flags().StringVar(&f.segment, "segment", "", "only simulate customers of this segment")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of customers to simulate (0 = config default)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for review text selection (0 = config default)")
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text, "+strings.Join(export.ValidFormats(), ", "))

	return cmd
}

// apply overlays explicitly set flags onto req.
func (f simulateFlags) apply(cmd *cobra.Command, req runner.Request) runner.Request {
	flags := cmd.Flags()
	if flags.Changed("name") {
		req.Name = f.name
	}
	if flags.Changed("price") {
		req.Price = f.price
	}
	if flags.Changed("category") {
		req.Category = f.category
	}
	if flags.Changed("segment") {
		req.Segment = f.segment
	}
	if flags.Changed("limit") {
		req.Limit = f.limit
	}
	if flags.Changed("seed") {
		req.Seed = f.seed
	}
	return req
}

func simulateOne(ctx context.Context, a *app, req runner.Request, format string, out io.Writer) error {
	rep, err := a.runner.Simulate(ctx, req)
	if err != nil {
		return err
	}
	return writeReport(out, rep, format)
}

// writeReport renders rep in the terminal format or any export format.
func writeReport(out io.Writer, rep *runner.Report, format string) error {
	if format == "" || format == "text" {
		renderReport(out, rep)
		return nil
	}
	s, err := export.Render(format, export.ExportData{Report: rep})
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

func simulateDir(cmd *cobra.Command, a *app, f simulateFlags, out io.Writer) error {
	ctx := cmd.Context()
	products, err := catalog.Discover(f.dir)
	if err != nil {
		return err
	}
	if len(products) == 0 && !f.watch {
		return fmt.Errorf("no product files found in %s", f.dir)
	}

	var bar *progressbar.ProgressBar
	if len(products) > 1 && logging.IsTerminal(os.Stderr) {
		bar = progressbar.NewOptions(len(products),
			progressbar.OptionSetDescription("  Simulating products"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var failed int
	for _, p := range products {
		if err := simulateFile(ctx, a, cmd, f, p, out); err != nil {
			failed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if !f.watch {
		if failed > 0 {
			return fmt.Errorf("%d of %d simulations failed", failed, len(products))
		}
		return nil
	}

	w, err := catalog.NewWatcher(f.dir, time.Duration(f.debounceMs)*time.Millisecond, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %s for product changes. Press Ctrl-C to stop.\n", f.dir)
	err = w.Watch(ctx, func(paths []string) {
		for _, path := range paths {
			p, err := catalog.Load(path)
			if err != nil {
				a.logger.Warn().Err(err).Str("file", path).Msg("could not load product file")
				continue
			}
			_ = simulateFile(ctx, a, cmd, f, p, out)
		}
	})
	fmt.Fprintln(out, "Stopping watcher.")
	return err
}

// simulateFile runs one catalog product and prints a single summary line.
func simulateFile(ctx context.Context, a *app, cmd *cobra.Command, f simulateFlags, p catalog.Product, out io.Writer) error {
	rel, err := filepath.Rel(f.dir, p.Path)
	if err != nil {
		rel = p.Path
	}
	rep, err := a.runner.Simulate(ctx, f.apply(cmd, p.Request()))
	if err != nil {
		fmt.Fprintf(out, "%-32s  %s\n", rel, statusStyles[store.StatusFailed].Render(err.Error()))
		return err
	}
	line := fmt.Sprintf("%-32s  %s", rel, rep.Simulation.ID)
	if s := rep.Score; s != nil {
		line += fmt.Sprintf("  %s %5.1f  avg %.2f  conv %5.1f%%  %s",
			s.Grade, s.OverallScore, rep.Summary.AvgRating, rep.Summary.ConversionRate,
			riskStyles[s.RiskLevel].Render(string(s.RiskLevel)))
	}
	fmt.Fprintln(out, line)
	return nil
}
