package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultGlobal(t *testing.T) {
	cfg := DefaultGlobal()

	if cfg.Embedder.Provider != "ollama" {
		t.Errorf("default embedder: got %q, want %q", cfg.Embedder.Provider, "ollama")
	}
	if cfg.Embedder.Model != "all-minilm" {
		t.Errorf("embed model: got %q", cfg.Embedder.Model)
	}
	if cfg.Embedder.MaxTokens != 256 {
		t.Errorf("max tokens: got %d, want 256", cfg.Embedder.MaxTokens)
	}
	if cfg.Embedder.Cache != "sqlite" {
		t.Errorf("cache: got %q", cfg.Embedder.Cache)
	}
	if cfg.Simulation.Ranker != RankerExhaustive {
		t.Errorf("ranker: got %q", cfg.Simulation.Ranker)
	}
	if cfg.Simulation.Limit != 0 {
		t.Errorf("limit should default to the whole corpus, got %d", cfg.Simulation.Limit)
	}
	if cfg.Corpus.CustomersPerSegment != 2500 {
		t.Errorf("customers per segment: got %d, want 2500", cfg.Corpus.CustomersPerSegment)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr: got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
}

func TestProjectDBPath(t *testing.T) {
	got := ProjectDBPath("/home/user/project")
	want := filepath.Join("/home/user/project", ".reviewsim", "reviewsim.db")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProjectConfigDirPath(t *testing.T) {
	got := ProjectConfigDirPath("/home/user/project")
	want := filepath.Join("/home/user/project", ".reviewsim")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadProject_NoFile(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedder.Provider != "" {
		t.Errorf("expected empty provider, got %q", cfg.Embedder.Provider)
	}
}

func TestSaveAndLoadProject(t *testing.T) {
	dir := t.TempDir()
	cfg := ProjectConfig{
		Project:    ProjectMeta{Name: "lamps"},
		Embedder:   EmbedderConfig{Provider: "hashing"},
		Simulation: SimulationConfig{Limit: 500, Seed: 9},
		Catalog:    CatalogConfig{Dir: "products"},
	}

	if err := SaveProject(dir, cfg); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	loaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip: got %+v, want %+v", loaded, cfg)
	}
}

func TestLoadProject_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(ProjectConfigDirPath(dir), 0o755)
	os.WriteFile(filepath.Join(ProjectConfigDirPath(dir), "config.toml"), []byte("[embedder\nprovider="), 0o644)

	if _, err := LoadProject(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_MergesProjectOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REVIEWSIM_EMBEDDER", "")
	dir := t.TempDir()

	SaveProject(dir, ProjectConfig{
		Embedder:   EmbedderConfig{Provider: "hashing", MaxTokens: 128},
		Simulation: SimulationConfig{Ranker: RankerIndexed, Limit: 1000},
	})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedder.Provider != "hashing" || cfg.Embedder.MaxTokens != 128 {
		t.Errorf("embedder overrides not applied: %+v", cfg.Embedder)
	}
	if cfg.Embedder.Model != "all-minilm" {
		t.Errorf("unset project fields must keep the global value, got %q", cfg.Embedder.Model)
	}
	if cfg.Simulation.Ranker != RankerIndexed || cfg.Simulation.Limit != 1000 {
		t.Errorf("simulation overrides not applied: %+v", cfg.Simulation)
	}
}

func TestLoad_EnvBeatsProject(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REVIEWSIM_EMBEDDER", "openai")
	dir := t.TempDir()
	SaveProject(dir, ProjectConfig{Embedder: EmbedderConfig{Provider: "hashing"}})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedder.Provider != "openai" {
		t.Errorf("expected env override, got %q", cfg.Embedder.Provider)
	}
}

func TestLoadGlobal_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "test-key-123")
	t.Setenv("REVIEWSIM_LOG_LEVEL", "debug")

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Keys.OpenAI != "test-key-123" {
		t.Errorf("expected env override, got %q", cfg.Keys.OpenAI)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
}

func TestSaveAndLoadGlobal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REVIEWSIM_EMBEDDER", "")

	cfg := DefaultGlobal()
	cfg.Embedder.Provider = "gemini"
	cfg.Corpus.CustomersPerSegment = 100
	if err := SaveGlobal(cfg); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}

	loaded, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if loaded.Embedder.Provider != "gemini" || loaded.Corpus.CustomersPerSegment != 100 {
		t.Errorf("round trip: got %+v", loaded)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	path, err := GlobalConfigPath()
	if err != nil {
		t.Fatalf("GlobalConfigPath: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("expected config.toml, got %q", filepath.Base(path))
	}
}
