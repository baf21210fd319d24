// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/litsearch/internal/httputil"
	"github.com/pdiddy/litsearch/pkg/types"
)

// europePMCSearchBase is the Europe PMC REST search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

const (
	europePMCPageCeiling = 1000
	europePMCArticleURL  = "https://europepmc.org/article/%s/%s"
)

// EuropePMC searches Europe PMC with cursorMark pagination.
type EuropePMC struct {
	Client *httputil.Client

	// Email is sent with each request as a contact address.
	Email string

	BatchSize  int
	MaxResults int
}

// Database returns types.EuropePMC.
func (e *EuropePMC) Database() types.SourceDatabase { return types.EuropePMC }

// Search runs query against Europe PMC.
func (e *EuropePMC) Search(ctx context.Context, query string, opts Options) ([]types.Article, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Europe PMC query")
	}
	limit := limitFor(opts, e.MaxResults)
	q := europePMCQuery(query, opts.Years)

	var articles []types.Article
	cursor := "*"
	for len(articles) < limit {
		params := url.Values{
			"query":      {q},
			"format":     {"json"},
			"resultType": {"core"},
			"cursorMark": {cursor},
			"pageSize":   {strconv.Itoa(pageSize(e.BatchSize, europePMCPageCeiling, limit-len(articles)))},
		}
		if e.Email != "" {
			params.Set("email", e.Email)
		}

		var resp europePMCResponse
		if err := e.Client.GetJSON(ctx, europePMCSearchBase+"?"+params.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("Europe PMC search: %w", err)
		}

		for _, r := range resp.ResultList.Result {
			articles = append(articles, r.article())
		}

		if len(resp.ResultList.Result) == 0 || resp.NextCursorMark == "" || resp.NextCursorMark == cursor {
			break
		}
		cursor = resp.NextCursorMark
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// europePMCQuery appends a PUB_YEAR range clause to query.
func europePMCQuery(query string, years YearRange) string {
	if years.IsZero() {
		return query
	}
	bound := func(y int) string {
		if y == 0 {
			return "*"
		}
		return strconv.Itoa(y)
	}
	return fmt.Sprintf("(%s) AND PUB_YEAR:[%s TO %s]", query, bound(years.From), bound(years.To))
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	HitCount       int    `json:"hitCount"`
	NextCursorMark string `json:"nextCursorMark"`
	ResultList     struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	PMID         string `json:"pmid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	AbstractText string `json:"abstractText"`
	JournalInfo  struct {
		Journal struct {
			Title string `json:"title"`
		} `json:"journal"`
	} `json:"journalInfo"`
}

func (r europePMCResult) article() types.Article {
	venue := r.JournalTitle
	if venue == "" {
		venue = r.JournalInfo.Journal.Title
	}

	link := ""
	if r.Source != "" && r.ID != "" {
		link = fmt.Sprintf(europePMCArticleURL, r.Source, r.ID)
	}

	return types.Article{
		Authors:  types.OrNA(strings.TrimSuffix(strings.TrimSpace(r.AuthorString), ".")),
		Title:    types.OrNA(cleanMarkup(r.Title)),
		Year:     types.OrNA(r.PubYear),
		DOI:      types.OrNA(r.DOI),
		URL:      types.OrNA(link),
		Abstract: types.OrNA(cleanMarkup(r.AbstractText)),
		Venue:    types.OrNA(venue),
	}
}
