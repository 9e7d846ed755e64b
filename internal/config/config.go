// Package config manages global (~/.config/reviewsim/config.toml) and
// per-project (.reviewsim/config.toml) configuration for reviewsim.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	Embedder   EmbedderConfig   `toml:"embedder"`
	Keys       KeysConfig       `toml:"keys"`
	Simulation SimulationConfig `toml:"simulation"`
	Corpus     CorpusConfig     `toml:"corpus"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// EmbedderConfig selects the embedding provider used for product descriptions.
type EmbedderConfig struct {
	Provider  string `toml:"provider"` // ollama, openai, gemini, hashing
	Model     string `toml:"model"`
	Host      string `toml:"host"`
	MaxTokens int    `toml:"max_tokens"`
	Cache     string `toml:"cache"` // sqlite, memory, off
}

type KeysConfig struct {
	OpenAI string `toml:"openai"`
	Gemini string `toml:"gemini"`
}

// SimulationConfig controls engine runs.
type SimulationConfig struct {
	Limit   int    `toml:"limit"`  // 0 = whole corpus
	Ranker  string `toml:"ranker"` // exhaustive, indexed
	Workers int    `toml:"workers"`
	Seed    int64  `toml:"seed"` // 0 = random per run
}

// CorpusConfig controls synthetic corpus generation.
type CorpusConfig struct {
	CustomersPerSegment int   `toml:"customers_per_segment"`
	Seed                int64 `toml:"seed"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto, console, json
}

// ProjectConfig holds per-project overrides stored in .reviewsim/config.toml.
type ProjectConfig struct {
	Project    ProjectMeta      `toml:"project"`
	Embedder   EmbedderConfig   `toml:"embedder"`
	Simulation SimulationConfig `toml:"simulation"`
	Catalog    CatalogConfig    `toml:"catalog"`
}

type ProjectMeta struct {
	Name string `toml:"name"`
}

// CatalogConfig points at a directory of product description files.
type CatalogConfig struct {
	Dir string `toml:"dir"`
}

// Ranker names.
const (
	RankerExhaustive = "exhaustive"
	RankerIndexed    = "indexed"
)

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		Embedder: EmbedderConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			Host:      "http://localhost:11434",
			MaxTokens: 256,
			Cache:     "sqlite",
		},
		Simulation: SimulationConfig{
			Limit:  0,
			Ranker: RankerExhaustive,
		},
		Corpus: CorpusConfig{
			CustomersPerSegment: 2500,
			Seed:                42,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reviewsim", "config.toml"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing values
// and environment overrides on top.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: load global: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file settings.
func applyEnv(cfg *GlobalConfig) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Keys.Gemini = v
	}
	if v := os.Getenv("REVIEWSIM_EMBEDDER"); v != "" {
		cfg.Embedder.Provider = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Embedder.Host = v
	}
	if v := os.Getenv("REVIEWSIM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create global config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadProject loads .reviewsim/config.toml from the given project root.
func LoadProject(root string) (ProjectConfig, error) {
	var cfg ProjectConfig
	path := filepath.Join(ProjectConfigDirPath(root), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load project: %w", err)
	}
	return cfg, nil
}

// ProjectDBPath returns the path to the project's SQLite database.
func ProjectDBPath(root string) string {
	return filepath.Join(root, ".reviewsim", "reviewsim.db")
}

// ProjectConfigDirPath returns the path to the project's .reviewsim/ directory.
func ProjectConfigDirPath(root string) string {
	return filepath.Join(root, ".reviewsim")
}

// Load returns the effective config for a project root (global merged with
// project). Environment variables still win over the project file.
func Load(root string) (GlobalConfig, error) {
	global, err := LoadGlobal()
	if err != nil {
		return global, err
	}

	project, err := LoadProject(root)
	if err != nil {
		return global, err
	}
	mergeProject(&global, project)
	applyEnv(&global)
	return global, nil
}

// mergeProject copies every non-zero project setting over the global one.
func mergeProject(g *GlobalConfig, p ProjectConfig) {
	if p.Embedder.Provider != "" {
		g.Embedder.Provider = p.Embedder.Provider
	}
	if p.Embedder.Model != "" {
		g.Embedder.Model = p.Embedder.Model
	}
	if p.Embedder.Host != "" {
		g.Embedder.Host = p.Embedder.Host
	}
	if p.Embedder.MaxTokens > 0 {
		g.Embedder.MaxTokens = p.Embedder.MaxTokens
	}
	if p.Embedder.Cache != "" {
		g.Embedder.Cache = p.Embedder.Cache
	}
	if p.Simulation.Limit > 0 {
		g.Simulation.Limit = p.Simulation.Limit
	}
	if p.Simulation.Ranker != "" {
		g.Simulation.Ranker = p.Simulation.Ranker
	}
	if p.Simulation.Workers > 0 {
		g.Simulation.Workers = p.Simulation.Workers
	}
	if p.Simulation.Seed != 0 {
		g.Simulation.Seed = p.Simulation.Seed
	}
}

// SaveProject writes the project config to .reviewsim/config.toml.
func SaveProject(root string, cfg ProjectConfig) error {
	dir := ProjectConfigDirPath(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir project: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create project config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
