// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/litsearch/internal/httputil"
	"github.com/pdiddy/litsearch/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const (
	openAlexPageCeiling = 200
	doiResolver         = "https://doi.org/"
)

// OpenAlex queries the OpenAlex Works API with cursor pagination. Its
// search parameter has no boolean operators, so AND queries go through the
// split-and-merge workaround.
type OpenAlex struct {
	Client *httputil.Client

	// Email is sent as mailto parameter for polite pool access.
	Email string

	BatchSize  int
	MaxResults int
}

// Database returns types.OpenAlex.
func (o *OpenAlex) Database() types.SourceDatabase { return types.OpenAlex }

// Search runs query against OpenAlex.
func (o *OpenAlex) Search(ctx context.Context, query string, opts Options) ([]types.Article, error) {
	searchText := strings.Join(strings.Fields(query), " ")
	if searchText == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	limit := limitFor(opts, o.MaxResults)

	var articles []types.Article
	cursor := "*"
	for len(articles) < limit {
		params := url.Values{
			"search":   {searchText},
			"per-page": {strconv.Itoa(pageSize(o.BatchSize, openAlexPageCeiling, limit-len(articles)))},
			"cursor":   {cursor},
		}
		if f := openAlexYearFilter(opts.Years); f != "" {
			params.Set("filter", f)
		}
		if o.Email != "" {
			params.Set("mailto", o.Email)
		}

		var resp openAlexResponse
		if err := o.Client.GetJSON(ctx, openAlexSearchBase+"?"+params.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("OpenAlex search: %w", err)
		}

		for _, work := range resp.Results {
			articles = append(articles, work.article())
		}

		if len(resp.Results) == 0 || resp.Meta.NextCursor == "" {
			break
		}
		cursor = resp.Meta.NextCursor
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func openAlexYearFilter(y YearRange) string {
	switch {
	case y.IsZero():
		return ""
	case y.From == 0:
		return "publication_year:<" + strconv.Itoa(y.To+1)
	case y.To == 0:
		return "publication_year:>" + strconv.Itoa(y.From-1)
	case y.From == y.To:
		return "publication_year:" + strconv.Itoa(y.From)
	default:
		return fmt.Sprintf("publication_year:%d-%d", y.From, y.To)
	}
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	Source         *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

func (w openAlexWork) article() types.Article {
	var authors []string
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	year := ""
	if w.PublicationYear > 0 {
		year = strconv.Itoa(w.PublicationYear)
	}

	// OpenAlex is DOI-centric: the DOI URL is the canonical link, then the
	// landing page, then the work id.
	link := w.DOI
	venue := ""
	if w.PrimaryLocation != nil {
		if link == "" {
			link = w.PrimaryLocation.LandingPageURL
		}
		if w.PrimaryLocation.Source != nil {
			venue = w.PrimaryLocation.Source.DisplayName
		}
	}
	if link == "" {
		link = w.ID
	}

	return types.Article{
		Authors:  types.OrNA(strings.Join(authors, ", ")),
		Title:    types.OrNA(cleanMarkup(title)),
		Year:     types.OrNA(year),
		DOI:      types.OrNA(strings.TrimPrefix(w.DOI, doiResolver)),
		URL:      types.OrNA(link),
		Abstract: types.OrNA(reconstructAbstract(w.AbstractInvertedIndex)),
		Venue:    types.OrNA(venue),
	}
}
