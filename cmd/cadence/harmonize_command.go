package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/metadata"
)

func newHarmonizeCommand(ctx *commandContext) *cobra.Command {
	var durationSec int
	var album string
	var isrc string
	var sourceTag string
	var musicContent bool

	cmd := &cobra.Command{
		Use:   "harmonize <title> <artist>",
		Short: "Run the consensus engine for a single title/artist pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			harmonizer, err := ctx.buildHarmonizer()
			if err != nil {
				return err
			}

			raw := metadata.RawRecord{
				Title:          args[0],
				Artist:         args[1],
				Album:          album,
				DurationSec:    durationSec,
				ISRC:           isrc,
				IsMusicContent: musicContent,
			}
			result := harmonizer.Harmonize(cmd.Context(), raw, sourceTag)

			if ctx.jsonOutput() {
				return writeJSON(cmd, harmonizedView(result))
			}

			rows := [][]string{
				{"Title", result.Title},
				{"Artist", result.Artist},
				{"Album", result.Album},
				{"Album artist", result.AlbumArtist},
				{"State", string(result.State)},
				{"Confidence", fmt.Sprintf("%.3f", result.Confidence)},
				{"Cover source", string(result.CoverSource)},
				{"Cover URL", result.CoverURL},
				{"MusicBrainz ID", result.MusicBrainzID},
				{"ISRC", result.ISRC},
				{"Fingerprint", result.QueryFingerprint},
				{"Decision", result.DecisionID},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVar(&durationSec, "duration", 0, "Track duration in seconds")
	cmd.Flags().StringVar(&album, "album", "", "Known album name, if any")
	cmd.Flags().StringVar(&isrc, "isrc", "", "Known ISRC, if any")
	cmd.Flags().StringVar(&sourceTag, "source", "youtube", "Source tag recorded in the result")
	cmd.Flags().BoolVar(&musicContent, "music-content", false, "Treat the record as music-platform content")
	return cmd
}

type harmonizedJSON struct {
	Title              string                                 `json:"title"`
	Artist             string                                 `json:"artist"`
	Album              string                                 `json:"album"`
	AlbumArtist        string                                 `json:"album_artist,omitempty"`
	Year               int                                    `json:"year,omitempty"`
	TrackNumber        int                                    `json:"track_number,omitempty"`
	CoverURL           string                                 `json:"cover_url,omitempty"`
	CoverSource        string                                 `json:"cover_source"`
	PremiumCoverFailed bool                                   `json:"premium_cover_failed"`
	MusicBrainzID      string                                 `json:"musicbrainz_id,omitempty"`
	ISRC               string                                 `json:"isrc,omitempty"`
	Confidence         float64                                `json:"metadata_confidence"`
	State              string                                 `json:"metadata_state"`
	QueryFingerprint   string                                 `json:"metadata_query_fingerprint"`
	DecisionID         string                                 `json:"metadata_decision_id"`
	Nominees           map[metadata.Source]metadata.Candidate `json:"review_candidates,omitempty"`
}

func harmonizedView(result metadata.Harmonized) harmonizedJSON {
	return harmonizedJSON{
		Title:              result.Title,
		Artist:             result.Artist,
		Album:              result.Album,
		AlbumArtist:        result.AlbumArtist,
		Year:               result.Year,
		TrackNumber:        result.TrackNumber,
		CoverURL:           result.CoverURL,
		CoverSource:        string(result.CoverSource),
		PremiumCoverFailed: result.PremiumCoverFailed,
		MusicBrainzID:      result.MusicBrainzID,
		ISRC:               result.ISRC,
		Confidence:         result.Confidence,
		State:              string(result.State),
		QueryFingerprint:   result.QueryFingerprint,
		DecisionID:         result.DecisionID,
		Nominees:           result.Nominees,
	}
}
