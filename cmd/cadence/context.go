package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"cadence/internal/catalog"
	"cadence/internal/catalog/itunes"
	"cadence/internal/catalog/musicbrainz"
	"cadence/internal/config"
	"cadence/internal/library"
	"cadence/internal/logging"
	"cadence/internal/metadata"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  level,
			Format: cfg.Logging.Format,
		})
	})
	return c.logger, c.loggerErr
}

// buildHarmonizer wires the configured providers into a ready engine.
func (c *commandContext) buildHarmonizer() (*metadata.Harmonizer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	var providers []catalog.Provider
	if cfg.MusicBrainz.Enabled {
		client, err := musicbrainz.New(
			cfg.MusicBrainz.BaseURL,
			cfg.MusicBrainz.CoverArtURL,
			cfg.MusicBrainz.UserAgent,
			musicbrainz.WithRateLimit(cfg.MusicBrainz.RequestsPerSec),
			musicbrainz.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.MusicBrainz.TimeoutSeconds) * time.Second,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("musicbrainz client: %w", err)
		}
		providers = append(providers, client)
	}
	if cfg.ITunes.Enabled {
		client, err := itunes.New(
			cfg.ITunes.BaseURL,
			cfg.ITunes.Country,
			itunes.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.ITunes.TimeoutSeconds) * time.Second,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("itunes client: %w", err)
		}
		providers = append(providers, client)
	}

	var aggregator metadata.Aggregator
	if len(providers) > 0 {
		aggregator = catalog.NewAggregator(providers, logger, catalog.Options{
			SearchLimit: cfg.Consensus.SearchLimit,
		})
	}

	return metadata.NewHarmonizer(aggregator, logger, metadata.Options{
		Thresholds: metadata.Thresholds{
			AutoResolve:     cfg.Consensus.AutoResolveThreshold,
			SoloAutoResolve: cfg.Consensus.SoloAutoResolveScore,
			Review:          cfg.Consensus.ReviewThreshold,
		},
		EnrichmentThreshold: cfg.Consensus.EnrichmentThreshold,
	}), nil
}

// withStore opens the library store for the duration of fn.
func (c *commandContext) withStore(fn func(*library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(store)
}
