// Package catalog fans candidate queries out to the configured catalog
// providers and merges the results into per-provider candidate lists.
package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"cadence/internal/logging"
	"cadence/internal/metadata"
)

// Provider is a read-only catalog lookup. Implementations must be safe for
// concurrent use.
type Provider interface {
	Source() metadata.Source
	Search(ctx context.Context, artist, title string, limit int) ([]metadata.Candidate, error)
}

const (
	defaultWorkers     = 6
	defaultCallTimeout = 8 * time.Second
	defaultSearchLimit = 5
)

// Options tunes aggregation behavior. Zero values use the defaults above.
type Options struct {
	Workers     int
	CallTimeout time.Duration
	SearchLimit int
}

// Aggregator issues each query against every provider using a bounded worker
// pool. Provider failures degrade to an empty result for that call; they
// never abort the batch.
type Aggregator struct {
	providers   []Provider
	workers     int
	callTimeout time.Duration
	searchLimit int
	logger      *slog.Logger
}

// NewAggregator constructs an Aggregator over the given providers.
func NewAggregator(providers []Provider, logger *slog.Logger, opts Options) *Aggregator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &Aggregator{
		providers:   providers,
		workers:     workers,
		callTimeout: timeout,
		searchLimit: limit,
		logger:      logging.NewComponentLogger(logger, "aggregator"),
	}
}

var _ metadata.Aggregator = (*Aggregator)(nil)

// Aggregate runs every (query, provider) pair and returns the unioned,
// per-provider deduplicated candidate lists in query order. Scoring, not
// aggregation, picks the best candidate.
func (a *Aggregator) Aggregate(ctx context.Context, queries []metadata.Query) metadata.CandidateSet {
	set := metadata.CandidateSet{}
	if len(queries) == 0 || len(a.providers) == 0 {
		return set
	}

	type call struct {
		provider Provider
		queryIdx int
	}
	type result struct {
		source     metadata.Source
		queryIdx   int
		candidates []metadata.Candidate
	}

	calls := make([]call, 0, len(queries)*len(a.providers))
	for idx := range queries {
		for _, provider := range a.providers {
			calls = append(calls, call{provider: provider, queryIdx: idx})
		}
	}

	results := make([]result, len(calls))
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c call) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
			defer cancel()

			query := queries[c.queryIdx]
			candidates, err := c.provider.Search(callCtx, query.Artist, query.Title, a.searchLimit)
			if err != nil {
				a.logger.Debug("provider search failed",
					logging.String(logging.FieldProvider, string(c.provider.Source())),
					logging.String("artist", query.Artist),
					logging.String("title", query.Title),
					logging.Error(err))
				candidates = nil
			}
			results[i] = result{source: c.provider.Source(), queryIdx: c.queryIdx, candidates: candidates}
		}(i, c)
	}
	wg.Wait()

	// Merge in (query, provider) order so dedup keeps first-seen candidates.
	seen := map[metadata.Source]map[string]struct{}{}
	for _, r := range results {
		if len(r.candidates) == 0 {
			continue
		}
		keys, ok := seen[r.source]
		if !ok {
			keys = map[string]struct{}{}
			seen[r.source] = keys
		}
		for _, cand := range r.candidates {
			key := dedupKey(cand)
			if _, dup := keys[key]; dup {
				continue
			}
			keys[key] = struct{}{}
			set[r.source] = append(set[r.source], cand)
		}
	}
	return set
}

// dedupKey identifies a candidate within one provider: catalog id when
// present, else a (title, artist, duration) composite.
func dedupKey(c metadata.Candidate) string {
	if c.CatalogID != "" {
		return "id\x00" + c.CatalogID
	}
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(c.Title)),
		strings.ToLower(strings.TrimSpace(c.Artist)),
		strconv.Itoa(c.DurationSec),
	}, "\x00")
}
