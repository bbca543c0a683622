// Package pagination provides sequential offset paging over the rank API
package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/apamidi800/rank-export/pkg/keyword"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 100

// Config holds loop configuration
type Config struct {
	// Limit is the number of records requested per page
	Limit int
	// Defaults are filled into records that lack device/engine
	Defaults keyword.Defaults
}

// DefaultConfig returns the page size and defaults of the rank export
func DefaultConfig() Config {
	return Config{
		Limit: DefaultLimit,
		Defaults: keyword.Defaults{
			Device: "m",
			Engine: "google",
		},
	}
}

// Cursor is the position of the next page request
type Cursor struct {
	Offset int
	Limit  int
}

// Advance moves the cursor past the current page
func (c *Cursor) Advance() {
	c.Offset += c.Limit
}

// Page is one fetched page body
type Page struct {
	// URL is the requested URL with credentials redacted
	URL string
	// Body is the raw response body
	Body []byte
	// Cached is true when the body came from the page cache
	Cached bool
}

// PageFetcher is the interface the rank API client must implement for single-page fetching
type PageFetcher interface {
	// FetchPage fetches the page at cursor
	FetchPage(ctx context.Context, cursor Cursor) (*Page, error)
}

// Result is the accumulated outcome of a run
type Result struct {
	Records []keyword.Record
	Offsets []int
	Pages   int
	// CachedPages counts pages served from the page cache
	CachedPages int
	Duration    time.Duration
}

// Loop pages through an endpoint until a page yields zero keyword entries
type Loop struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewLoop creates a new loop
func NewLoop(fetcher PageFetcher, config Config) *Loop {
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}

	return &Loop{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// runState is the loop-local state of one run
type runState struct {
	cursor   Cursor
	records  []keyword.Record
	offsets  []int
	cached   int
	pageSize int
}

// Run fetches pages sequentially and accumulates their records.
// It stops at the first page without keyword entries; any fetch or parse error
// aborts the run without partial results.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	// pageSize starts nonzero so the first page is always fetched
	st := runState{
		cursor:   Cursor{Offset: 0, Limit: l.config.Limit},
		pageSize: 1,
	}

	for st.pageSize > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stopped at offset %d: %w", st.cursor.Offset, err)
		}

		page, err := l.fetcher.FetchPage(ctx, st.cursor)
		if err != nil {
			pagesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("fetch page at offset %d: %w", st.cursor.Offset, err)
		}

		result, err := keyword.ParsePage(page.Body)
		if err != nil {
			pagesTotal.WithLabelValues("error").Inc()
			l.logger.Error().
				Err(err).
				Str("url", page.URL).
				Int("offset", st.cursor.Offset).
				Int("bytes", len(page.Body)).
				Msg("Page could not be parsed")
			return nil, fmt.Errorf("parse page at offset %d: %w", st.cursor.Offset, err)
		}

		for _, record := range result.Records() {
			l.config.Defaults.Apply(record)
			st.records = append(st.records, record)
		}

		st.offsets = append(st.offsets, st.cursor.Offset)
		if page.Cached {
			st.cached++
		}
		st.pageSize = result.Entries()

		if result.IsEmpty() {
			pagesTotal.WithLabelValues("empty").Inc()
		} else {
			pagesTotal.WithLabelValues("records").Inc()
			recordsTotal.Add(float64(result.Len()))
		}

		l.logger.Info().
			Str("url", page.URL).
			Int("offset", st.cursor.Offset).
			Int("records", result.Len()).
			Bool("cached", page.Cached).
			Msg("Fetched page")

		st.cursor.Advance()
	}

	duration := time.Since(start)
	runDuration.Observe(duration.Seconds())

	l.logger.Info().
		Int("pages", len(st.offsets)).
		Int("records", len(st.records)).
		Dur("duration", duration).
		Msg("Pagination complete")

	return &Result{
		Records:     st.records,
		Offsets:     st.offsets,
		Pages:       len(st.offsets),
		CachedPages: st.cached,
		Duration:    duration,
	}, nil
}
