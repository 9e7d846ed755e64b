package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/config"
	"github.com/reviewsim/reviewsim/internal/db"
)

func newInitCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize reviewsim in the current directory",
		Long: `Create the .reviewsim/ directory with a SQLite database and a project
config. Run 'reviewsim seed' afterwards to generate the customer corpus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := flagRoot
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				root = cwd
			}
			root, _ = filepath.Abs(root)

			database, err := db.Open(config.ProjectDBPath(root))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			if name == "" {
				name = filepath.Base(root)
			}
			configPath := filepath.Join(config.ProjectConfigDirPath(root), "config.toml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				pcfg := config.ProjectConfig{Project: config.ProjectMeta{Name: name}}
				if err := config.SaveProject(root, pcfg); err != nil {
					fmt.Fprintf(os.Stderr, "  Warning: could not write project config: %v\n", err)
				}
			}

			ensureGitignore(root)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "reviewsim initialized in .reviewsim/")
			if !database.VectorEnabled() {
				fmt.Fprintln(out, "  Note: sqlite-vec is unavailable; the indexed ranker will fall back to exhaustive scans.")
			}
			fmt.Fprintln(out, `Tip: Run "reviewsim seed" to generate the customer corpus.`)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")

	return cmd
}

// ensureGitignore appends .reviewsim/ to .gitignore if not already present.
func ensureGitignore(root string) {
	path := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(content), ".reviewsim/") {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString(".reviewsim/\n")
}
