package config

const (
	defaultLibraryDir           = "~/.local/share/cadence/library"
	defaultLogDir               = "~/.local/share/cadence/logs"
	defaultLogLevel             = "info"
	defaultLogFormat            = "console"
	defaultMusicBrainzBaseURL   = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL          = "https://coverartarchive.org"
	defaultMusicBrainzUserAgent = "cadence/1.0 (https://github.com/cadence-player/cadence)"
	defaultMusicBrainzRate      = 1.0
	defaultITunesBaseURL        = "https://itunes.apple.com"
	defaultITunesCountry        = "us"
	defaultProviderTimeout      = 8
	defaultAutoResolve          = 0.90
	defaultSoloAutoResolve      = 0.97
	defaultReviewThreshold      = 0.72
	defaultEnrichmentThreshold  = 0.8
	defaultSearchLimit          = 5
	defaultPausePollMillis      = 200
	defaultPacingMillis         = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		MusicBrainz: MusicBrainz{
			Enabled:        true,
			BaseURL:        defaultMusicBrainzBaseURL,
			CoverArtURL:    defaultCoverArtURL,
			UserAgent:      defaultMusicBrainzUserAgent,
			RequestsPerSec: defaultMusicBrainzRate,
			TimeoutSeconds: defaultProviderTimeout,
		},
		ITunes: ITunes{
			Enabled:        true,
			BaseURL:        defaultITunesBaseURL,
			Country:        defaultITunesCountry,
			TimeoutSeconds: defaultProviderTimeout,
		},
		Consensus: Consensus{
			AutoResolveThreshold: defaultAutoResolve,
			SoloAutoResolveScore: defaultSoloAutoResolve,
			ReviewThreshold:      defaultReviewThreshold,
			EnrichmentThreshold:  defaultEnrichmentThreshold,
			SearchLimit:          defaultSearchLimit,
		},
		Migration: Migration{
			PausePollMillis: defaultPausePollMillis,
			PacingMillis:    defaultPacingMillis,
		},
	}
}
