package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + dir + `/library"

[consensus]
auto_resolve_threshold = 0.95
review_threshold = 0.7
solo_auto_resolve_score = 0.98
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Consensus.AutoResolveThreshold != 0.95 {
		t.Fatalf("expected override threshold 0.95, got %f", cfg.Consensus.AutoResolveThreshold)
	}
	if cfg.Consensus.SearchLimit != 5 {
		t.Fatalf("expected default search limit to survive, got %d", cfg.Consensus.SearchLimit)
	}
	if cfg.Paths.LibraryDir != dir+"/library" {
		t.Fatalf("unexpected library dir: %s", cfg.Paths.LibraryDir)
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Consensus.ReviewThreshold = 0.95
	cfg.Consensus.AutoResolveThreshold = 0.8
	cfg.Consensus.SoloAutoResolveScore = 0.97
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when review threshold exceeds auto threshold")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample config already exists")
	}
}
