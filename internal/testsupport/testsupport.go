// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"cadence/internal/config"
	"cadence/internal/library"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.MusicBrainz.Enabled = false
	cfg.ITunes.Enabled = false
	cfg.Migration.PausePollMillis = 10
	cfg.Migration.PacingMillis = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// MustOpenStore opens a library store for the config and closes it with the
// test.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedTrack inserts a minimal track and returns the stored row.
func SeedTrack(t testing.TB, store *library.Store, title, artist string, durationSec int) *library.Track {
	t.Helper()

	track, err := store.InsertTrack(context.Background(), &library.Track{
		Title:       title,
		Artist:      artist,
		DurationSec: durationSec,
	})
	if err != nil {
		t.Fatalf("seed track: %v", err)
	}
	return track
}
