package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/config"
	"github.com/reviewsim/reviewsim/internal/db"
	"github.com/reviewsim/reviewsim/internal/embed"
	"github.com/reviewsim/reviewsim/internal/logging"
	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// app bundles everything a command needs for one initialized project.
type app struct {
	root     string
	cfg      config.GlobalConfig
	project  config.ProjectConfig
	logger   zerolog.Logger
	db       *db.DB
	store    *store.Store
	vectors  *store.VectorStore
	embedder embed.Embedder
	runner   *runner.Runner

	closers []io.Closer
}

// openApp loads config, opens the project database and builds the runner.
// withEmbedder is false for commands that never embed text.
func openApp(ctx context.Context, withEmbedder bool) (*app, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	dbPath, err := ensureInitialized(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	project, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if verr := database.VectorError(); verr != nil {
		logger.Debug().Err(verr).Msg("sqlite-vec unavailable, indexed ranking disabled")
	}

	a := &app{
		root:    root,
		cfg:     cfg,
		project: project,
		logger:  logger,
		db:      database,
		store:   store.NewStore(database),
		closers: []io.Closer{database},
	}
	if database.VectorEnabled() {
		a.vectors = store.NewVectorStore(database)
	}

	if withEmbedder {
		if err := a.buildEmbedder(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.runner = runner.New(a.store, a.vectors, a.embedder, runner.Options{
		Limit:   cfg.Simulation.Limit,
		Ranker:  cfg.Simulation.Ranker,
		Workers: cfg.Simulation.Workers,
		Seed:    cfg.Simulation.Seed,
		Logger:  logger,
	})
	return a, nil
}

// buildEmbedder constructs the configured provider, then layers token
// truncation and the configured cache on top.
func (a *app) buildEmbedder(ctx context.Context) error {
	ec := a.cfg.Embedder
	key := ""
	switch ec.Provider {
	case embed.ProviderOpenAI:
		key = a.cfg.Keys.OpenAI
	case embed.ProviderGemini:
		key = a.cfg.Keys.Gemini
	}

	base, err := embed.New(ctx, embed.Config{Provider: ec.Provider, Model: ec.Model, Host: ec.Host, APIKey: key})
	if err != nil {
		return err
	}
	if c, ok := base.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var e embed.Embedder = base
	// Feature hashing has no input budget.
	if ec.MaxTokens > 0 && ec.Provider != embed.ProviderHashing {
		tok, err := embed.NewTokenizer()
		if err != nil {
			a.logger.Warn().Err(err).Msg("tokenizer unavailable, descriptions will not be truncated")
		} else {
			t := embed.NewTruncator(e, tok, ec.MaxTokens)
			t.OnTruncate = func(before, after int) {
				a.logger.Debug().Int("tokens", before).Int("kept", after).Msg("description truncated before embedding")
			}
			e = t
		}
	}

	switch ec.Cache {
	case "sqlite":
		e = embed.NewCached(e, store.NewEmbeddingCache(a.db))
	case "memory":
		e = embed.NewCached(e, embed.NewMemoryCache())
	}
	a.embedder = e
	return nil
}

// Close releases the database and any embedder clients.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func newLogger(cfg config.GlobalConfig) zerolog.Logger {
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
}

// findRoot returns --root, or the nearest directory at or above the working
// directory that contains .reviewsim/, or the working directory itself.
func findRoot() (string, error) {
	if flagRoot != "" {
		return filepath.Abs(flagRoot)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	dir, _ := filepath.Abs(cwd)
	for {
		if _, err := os.Stat(config.ProjectConfigDirPath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd, nil
}

func ensureInitialized(root string) (string, error) {
	dbPath := config.ProjectDBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("reviewsim not initialized. Run `reviewsim init` first")
	}
	return dbPath, nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
