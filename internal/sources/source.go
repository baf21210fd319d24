// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources queries PubMed, Europe PMC and OpenAlex and normalizes
// their responses into types.Article records. Each adapter pages through
// results internally and stops at the requested limit or when the source
// reports no further pages.
package sources

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/litsearch/internal/httputil"
	"github.com/pdiddy/litsearch/pkg/types"
)

// ErrDisabled is returned by New for a source switched off in configuration.
var ErrDisabled = errors.New("source is disabled")

// Adapter searches one literature database.
type Adapter interface {
	Database() types.SourceDatabase
	Search(ctx context.Context, query string, opts Options) ([]types.Article, error)
}

// Options narrows one search.
type Options struct {
	// Limit caps the number of articles; 0 means the configured maximum.
	Limit int

	// Years restricts publication years; the zero value applies no filter.
	Years YearRange
}

// YearRange is an inclusive publication year range. A zero bound is open.
type YearRange struct {
	From int
	To   int
}

// IsZero reports whether the range applies no filter.
func (y YearRange) IsZero() bool { return y.From == 0 && y.To == 0 }

// ParseYearRange parses "2015-2020", "2015-", "-2020" or "2015".
func ParseYearRange(s string) (YearRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearRange{}, nil
	}

	parse := func(part string) (int, error) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, nil
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1000 || y > 9999 {
			return 0, fmt.Errorf("invalid year %q in range %q", part, s)
		}
		return y, nil
	}

	fromText, toText, isRange := strings.Cut(s, "-")
	from, err := parse(fromText)
	if err != nil {
		return YearRange{}, err
	}
	if !isRange {
		return YearRange{From: from, To: from}, nil
	}
	to, err := parse(toText)
	if err != nil {
		return YearRange{}, err
	}
	if from != 0 && to != 0 && from > to {
		return YearRange{}, fmt.Errorf("invalid year range %q: start after end", s)
	}
	return YearRange{From: from, To: to}, nil
}

func (y YearRange) String() string {
	switch {
	case y.IsZero():
		return ""
	case y.From == y.To:
		return strconv.Itoa(y.From)
	case y.To == 0:
		return strconv.Itoa(y.From) + "-"
	case y.From == 0:
		return "-" + strconv.Itoa(y.To)
	default:
		return strconv.Itoa(y.From) + "-" + strconv.Itoa(y.To)
	}
}

// NativeAnd reports whether the database's query language evaluates AND
// itself. Only sources without it run the split-and-merge workaround.
func NativeAnd(db types.SourceDatabase) bool {
	switch db {
	case types.PubMed, types.EuropePMC:
		return true
	default:
		return false
	}
}

// NewClient builds the HTTP client for db from the shared and per-source
// settings.
func NewClient(db types.SourceDatabase, cfg types.Config, opts ...httputil.Option) *httputil.Client {
	src := cfg.Source(db)
	return httputil.New(httputil.Config{
		Source:     string(db),
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxRetries: cfg.HTTP.MaxRetries,
		RateLimit:  src.RateLimit,
		Burst:      src.Burst,
	}, opts...)
}

// New returns the adapter for db.
func New(db types.SourceDatabase, cfg types.Config, client *httputil.Client) (Adapter, error) {
	if _, err := types.ParseSourceDatabase(string(db)); err != nil {
		return nil, err
	}
	src := cfg.Source(db)
	if !src.Enabled {
		return nil, fmt.Errorf("%s: %w", db, ErrDisabled)
	}

	switch db {
	case types.PubMed:
		return &PubMed{
			Client:         client,
			APIKey:         src.APIKey,
			Email:          src.Email,
			BatchSize:      cfg.Search.BatchSize,
			MaxResults:     cfg.Search.MaxResults,
			FetchAbstracts: src.FetchAbstracts,
		}, nil
	case types.EuropePMC:
		return &EuropePMC{
			Client:     client,
			Email:      src.Email,
			BatchSize:  cfg.Search.BatchSize,
			MaxResults: cfg.Search.MaxResults,
		}, nil
	case types.OpenAlex:
		return &OpenAlex{
			Client:     client,
			Email:      src.Email,
			BatchSize:  cfg.Search.BatchSize,
			MaxResults: cfg.Search.MaxResults,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownDatabase, db)
	}
}

// defaultMaxResults applies when neither the search nor the configuration
// sets a cap.
const defaultMaxResults = 10000

// limitFor resolves the effective article cap of one search: the requested
// limit, bounded by the configured maximum.
func limitFor(opts Options, maxResults int) int {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if opts.Limit > 0 && opts.Limit < maxResults {
		return opts.Limit
	}
	return maxResults
}

// pageSize returns the page to request given the remaining budget.
func pageSize(batch, ceiling, remaining int) int {
	n := batch
	if n <= 0 || n > ceiling {
		n = ceiling
	}
	if remaining > 0 && remaining < n {
		n = remaining
	}
	return n
}

var markupTag = regexp.MustCompile(`<[^>]+>`)

// cleanMarkup strips inline markup and decodes entities from titles and
// abstracts returned as HTML or JATS fragments.
func cleanMarkup(s string) string {
	s = markupTag.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
