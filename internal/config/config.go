// Package config loads and validates the TOML configuration for the metadata
// harmonizer and migration orchestrator.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MusicBrainz configures the recording-catalog adapter.
type MusicBrainz struct {
	Enabled        bool    `toml:"enabled"`
	BaseURL        string  `toml:"base_url"`
	CoverArtURL    string  `toml:"cover_art_url"`
	UserAgent      string  `toml:"user_agent"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// ITunes configures the store-catalog adapter.
type ITunes struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	Country        string `toml:"country"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Consensus contains the tunable decision thresholds. The scoring weights
// themselves are fixed; only the gates move.
type Consensus struct {
	AutoResolveThreshold float64 `toml:"auto_resolve_threshold"`
	SoloAutoResolveScore float64 `toml:"solo_auto_resolve_score"`
	ReviewThreshold      float64 `toml:"review_threshold"`
	EnrichmentThreshold  float64 `toml:"enrichment_threshold"`
	SearchLimit          int     `toml:"search_limit"`
}

// Migration contains bulk re-harmonization pacing knobs.
type Migration struct {
	PausePollMillis int `toml:"pause_poll_millis"`
	PacingMillis    int `toml:"pacing_millis"`
}

// Config is the root configuration document.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Logging     Logging     `toml:"logging"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	ITunes      ITunes      `toml:"itunes"`
	Consensus   Consensus   `toml:"consensus"`
	Migration   Migration   `toml:"migration"`
}

// DefaultConfigPath returns the expected location of the config file.
func DefaultConfigPath() string {
	return expandPath("~/.config/cadence/config.toml")
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. A missing explicit path is an error; a missing default path
// is not.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := Default()

	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			cfg.normalize()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LibraryDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the library dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.LibraryDir, "cadence.db")
}

func (c *Config) normalize() {
	c.Paths.LibraryDir = expandPath(c.Paths.LibraryDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
