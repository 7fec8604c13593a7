// Package musicbrainz implements the recording-catalog provider adapter
// against the MusicBrainz web service, with cover URLs resolved through the
// Cover Art Archive.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cadence/internal/metadata"
	"cadence/internal/services"
)

// recording models the slice of the MusicBrainz search response we consume.
type recording struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	LengthMillis int      `json:"length"`
	Score        int      `json:"score"`
	ISRCs        []string `json:"isrcs"`
	ArtistCredit []struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"artist-credit"`
	Releases []struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		ArtistCredit []struct {
			Name string `json:"name"`
		} `json:"artist-credit"`
	} `json:"releases"`
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

// Client provides recording searches against the MusicBrainz API.
type Client struct {
	baseURL     string
	coverArtURL string
	userAgent   string
	limiter     *rate.Limiter
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit overrides the request budget. MusicBrainz guidelines allow
// one request per second for anonymous clients.
func WithRateLimit(requestsPerSec float64) Option {
	return func(c *Client) {
		if requestsPerSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
		}
	}
}

// New creates a MusicBrainz client. A descriptive User-Agent is required by
// the service's terms.
func New(baseURL, coverArtURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	coverArtURL = strings.TrimRight(strings.TrimSpace(coverArtURL), "/")
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		coverArtURL: coverArtURL,
		userAgent:   userAgent,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Source identifies this provider as the recording catalog.
func (c *Client) Source() metadata.Source {
	return metadata.SourceMusicBrainz
}

// Search queries MusicBrainz recordings by artist and title.
func (c *Client) Search(ctx context.Context, artist, title string, limit int) ([]metadata.Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "musicbrainz", "rate wait", "", err)
	}

	query := luceneQuery(artist, title)
	endpoint := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "musicbrainz", "build request", "", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "musicbrainz", "search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "musicbrainz", "search",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "musicbrainz", "decode response", "", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Recordings))
	for _, rec := range payload.Recordings {
		candidates = append(candidates, c.toCandidate(rec))
	}
	return candidates, nil
}

func (c *Client) toCandidate(rec recording) metadata.Candidate {
	cand := metadata.Candidate{
		Title:       rec.Title,
		DurationSec: rec.LengthMillis / 1000,
		Source:      metadata.SourceMusicBrainz,
		CatalogID:   rec.ID,
	}
	if len(rec.ArtistCredit) > 0 {
		cand.Artist = rec.ArtistCredit[0].Name
		if cand.Artist == "" {
			cand.Artist = rec.ArtistCredit[0].Artist.Name
		}
	}
	if len(rec.ISRCs) > 0 {
		cand.ISRC = rec.ISRCs[0]
	}
	if len(rec.Releases) > 0 {
		release := rec.Releases[0]
		cand.Album = release.Title
		if len(release.ArtistCredit) > 0 {
			cand.AlbumArtist = release.ArtistCredit[0].Name
		}
		if c.coverArtURL != "" && release.ID != "" {
			cand.CoverURL = fmt.Sprintf("%s/release/%s/front-500", c.coverArtURL, release.ID)
		}
	}
	return cand
}

// luceneQuery builds the fielded MusicBrainz query, quoting values and
// escaping embedded quotes.
func luceneQuery(artist, title string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), `"`, `\"`)
	}
	if strings.TrimSpace(artist) == "" {
		return fmt.Sprintf(`recording:"%s"`, escape(title))
	}
	return fmt.Sprintf(`artist:"%s" AND recording:"%s"`, escape(artist), escape(title))
}
