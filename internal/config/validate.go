package config

import (
	"strings"

	"cadence/internal/services"
)

// Validate checks the configuration for inconsistencies a running system
// cannot tolerate.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must be set")
	}
	if c.MusicBrainz.Enabled {
		if strings.TrimSpace(c.MusicBrainz.BaseURL) == "" {
			problems = append(problems, "musicbrainz.base_url must be set when enabled")
		}
		if strings.TrimSpace(c.MusicBrainz.UserAgent) == "" {
			problems = append(problems, "musicbrainz.user_agent must be set when enabled")
		}
		if c.MusicBrainz.RequestsPerSec <= 0 {
			problems = append(problems, "musicbrainz.requests_per_sec must be positive")
		}
	}
	if c.ITunes.Enabled && strings.TrimSpace(c.ITunes.BaseURL) == "" {
		problems = append(problems, "itunes.base_url must be set when enabled")
	}

	cons := c.Consensus
	if cons.AutoResolveThreshold <= 0 || cons.AutoResolveThreshold > 1 {
		problems = append(problems, "consensus.auto_resolve_threshold must be in (0, 1]")
	}
	if cons.ReviewThreshold <= 0 || cons.ReviewThreshold > 1 {
		problems = append(problems, "consensus.review_threshold must be in (0, 1]")
	}
	if cons.ReviewThreshold > cons.AutoResolveThreshold {
		problems = append(problems, "consensus.review_threshold must not exceed auto_resolve_threshold")
	}
	if cons.SoloAutoResolveScore < cons.AutoResolveThreshold || cons.SoloAutoResolveScore > 1 {
		problems = append(problems, "consensus.solo_auto_resolve_score must be in [auto_resolve_threshold, 1]")
	}
	if cons.EnrichmentThreshold <= 0 || cons.EnrichmentThreshold > 1 {
		problems = append(problems, "consensus.enrichment_threshold must be in (0, 1]")
	}
	if cons.SearchLimit <= 0 || cons.SearchLimit > 25 {
		problems = append(problems, "consensus.search_limit must be in [1, 25]")
	}

	if c.Migration.PausePollMillis <= 0 {
		problems = append(problems, "migration.pause_poll_millis must be positive")
	}
	if c.Migration.PacingMillis < 0 {
		problems = append(problems, "migration.pacing_millis must not be negative")
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}
