// Package itunes implements the store-catalog provider adapter against the
// iTunes Search API. The API needs no authentication.
package itunes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cadence/internal/metadata"
	"cadence/internal/services"
)

type track struct {
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	CollectionArtist string `json:"collectionArtistName"`
	TrackTimeMillis  int    `json:"trackTimeMillis"`
	ArtworkURL100    string `json:"artworkUrl100"`
	WrapperType      string `json:"wrapperType"`
	Kind             string `json:"kind"`
}

type searchResponse struct {
	ResultCount int     `json:"resultCount"`
	Results     []track `json:"results"`
}

// Client provides track searches against the iTunes Search API.
type Client struct {
	baseURL    string
	country    string
	httpClient *http.Client
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

// New creates an iTunes Search client. country is the two-letter storefront
// code; empty defaults to "us".
func New(baseURL, country string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("itunes base url required")
	}
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		country = "us"
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Source identifies this provider as the store catalog.
func (c *Client) Source() metadata.Source {
	return metadata.SourceITunes
}

// Search queries iTunes songs by artist and title.
func (c *Client) Search(ctx context.Context, artist, title string, limit int) ([]metadata.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	term := title
	if artist = strings.TrimSpace(artist); artist != "" {
		term = artist + " " + title
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("entity", "song")
	params.Set("media", "music")
	params.Set("country", c.country)
	params.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "itunes", "build request", "", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "itunes", "search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "itunes", "search",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "itunes", "decode response", "", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Results))
	for _, tr := range payload.Results {
		if tr.Kind != "" && tr.Kind != "song" {
			continue
		}
		candidates = append(candidates, toCandidate(tr))
	}
	return candidates, nil
}

func toCandidate(tr track) metadata.Candidate {
	cand := metadata.Candidate{
		Title:       tr.TrackName,
		Artist:      tr.ArtistName,
		Album:       tr.CollectionName,
		AlbumArtist: tr.CollectionArtist,
		DurationSec: tr.TrackTimeMillis / 1000,
		CoverURL:    upscaleArtwork(tr.ArtworkURL100),
		Source:      metadata.SourceITunes,
	}
	if tr.TrackID != 0 {
		cand.CatalogID = strconv.FormatInt(tr.TrackID, 10)
	}
	return cand
}

// upscaleArtwork swaps the 100x100 artwork suffix for the 600x600 variant the
// CDN also serves.
func upscaleArtwork(artworkURL string) string {
	if artworkURL == "" {
		return ""
	}
	return strings.Replace(artworkURL, "100x100bb", "600x600bb", 1)
}
