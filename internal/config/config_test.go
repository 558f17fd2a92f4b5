package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Extractor.Backend != "heuristic" {
		t.Errorf("expected backend 'heuristic', got %q", cfg.Extractor.Backend)
	}
	if cfg.Models.NounPhrases != "llama3.1:8b" {
		t.Errorf("expected model 'llama3.1:8b', got %q", cfg.Models.NounPhrases)
	}
	if cfg.Sample.MinYear != 1890 || cfg.Sample.MaxYear != 1912 {
		t.Errorf("expected sample 1890-1912, got %d-%d", cfg.Sample.MinYear, cfg.Sample.MaxYear)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Characteristics.CorrectedDomestic {
		t.Error("expected the published domestic indicator by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
extractor:
  backend: ollama
  workers: 8
server:
  port: 9000
characteristics:
  corrected_domestic: true
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Extractor.Backend != "ollama" {
		t.Errorf("expected backend 'ollama', got %q", cfg.Extractor.Backend)
	}
	if cfg.Extractor.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Extractor.Workers)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if !cfg.Characteristics.CorrectedDomestic {
		t.Error("expected corrected_domestic to be set")
	}
	// Defaults should still be set for unspecified fields
	if cfg.Extractor.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Extractor.OllamaURL)
	}
	if cfg.Paths.NoveltyFile != "data/novelty.csv" {
		t.Errorf("expected default novelty_file, got %q", cfg.Paths.NoveltyFile)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg, err := parse([]byte("extractor:\n  backend: spacy\n"))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown backend")
	}
}

func TestValidateRejectsInvertedYears(t *testing.T) {
	cfg, err := parse([]byte("sample:\n  min_year: 1912\n  max_year: 1890\n"))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for max_year < min_year")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Paths.DissertationsFile != "data/dissertations.csv" {
		t.Errorf("expected dissertations file from config, got %q", cfg.Paths.DissertationsFile)
	}
}

func TestLoadInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("extractor:\n  workers: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for workers: 0")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Paths.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.DatabasePath() != filepath.Join("/custom/path", "dissnovelty.db") {
		t.Errorf("unexpected database path %q", cfg.DatabasePath())
	}
}
