// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/litsearch/internal/httputil"
	"github.com/pdiddy/litsearch/pkg/types"
)

// pubmedBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var pubmedBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	// pubmedSummaryBatch bounds the ids per esummary/efetch call to keep
	// request URLs short.
	pubmedSummaryBatch = 200

	// pubmedPageCeiling is the largest retmax esearch accepts per page.
	pubmedPageCeiling = 10000

	pubmedArticleURL = "https://pubmed.ncbi.nlm.nih.gov/%s/"
)

// PubMed searches PubMed through the E-utilities: esearch collects PMIDs,
// esummary turns them into articles, and efetch optionally fills abstracts.
type PubMed struct {
	Client *httputil.Client

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string

	// Email identifies the caller to NCBI.
	Email string

	BatchSize  int
	MaxResults int

	// FetchAbstracts issues efetch calls to fill abstracts, which esummary
	// does not return.
	FetchAbstracts bool
}

// Database returns types.PubMed.
func (p *PubMed) Database() types.SourceDatabase { return types.PubMed }

// Search runs query against PubMed.
func (p *PubMed) Search(ctx context.Context, query string, opts Options) ([]types.Article, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	pmids, err := p.searchIDs(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	if len(pmids) == 0 {
		return nil, nil
	}

	var articles []types.Article
	for start := 0; start < len(pmids); start += pubmedSummaryBatch {
		batch := pmids[start:min(start+pubmedSummaryBatch, len(pmids))]
		summaries, err := p.summaries(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("PubMed esummary: %w", err)
		}
		if p.FetchAbstracts {
			abstracts, err := p.abstracts(ctx, batch)
			if err != nil {
				return nil, fmt.Errorf("PubMed efetch: %w", err)
			}
			for i := range summaries {
				if abs, ok := abstracts[pmidOf(summaries[i])]; ok && abs != "" {
					summaries[i].Abstract = abs
				}
			}
		}
		articles = append(articles, summaries...)
	}
	return articles, nil
}

// searchIDs pages through esearch until limit PMIDs are collected or the
// result count is exhausted.
func (p *PubMed) searchIDs(ctx context.Context, query string, opts Options) ([]string, error) {
	limit := limitFor(opts, p.MaxResults)

	var pmids []string
	for len(pmids) < limit {
		params := p.params()
		params.Set("term", query)
		params.Set("retmode", "json")
		params.Set("retstart", strconv.Itoa(len(pmids)))
		params.Set("retmax", strconv.Itoa(pageSize(p.BatchSize, pubmedPageCeiling, limit-len(pmids))))
		if !opts.Years.IsZero() {
			params.Set("datetype", "pdat")
			params.Set("mindate", yearOr(opts.Years.From, 1000))
			params.Set("maxdate", yearOr(opts.Years.To, 3000))
		}

		var resp esearchResponse
		if err := p.Client.GetJSON(ctx, pubmedBase+"/esearch.fcgi?"+params.Encode(), &resp); err != nil {
			return nil, err
		}
		if resp.Result.Error != "" {
			return nil, fmt.Errorf("%s", resp.Result.Error)
		}

		ids := resp.Result.IDList
		if len(ids) == 0 {
			break
		}
		pmids = append(pmids, ids...)

		count, _ := strconv.Atoi(resp.Result.Count)
		if len(pmids) >= count {
			break
		}
	}

	if len(pmids) > limit {
		pmids = pmids[:limit]
	}
	return pmids, nil
}

// summaries fetches esummary records for pmids, preserving the response
// order of uids.
func (p *PubMed) summaries(ctx context.Context, pmids []string) ([]types.Article, error) {
	params := p.params()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "json")

	var resp esummaryResponse
	if err := p.Client.GetJSON(ctx, pubmedBase+"/esummary.fcgi?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("parsing uids: %w", err)
		}
	}

	articles := make([]types.Article, 0, len(uids))
	for _, uid := range uids {
		raw, ok := resp.Result[uid]
		if !ok {
			continue
		}
		var doc esummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing summary %s: %w", uid, err)
		}
		articles = append(articles, doc.article(uid))
	}
	return articles, nil
}

// abstracts fetches efetch XML for pmids and returns abstracts by PMID.
func (p *PubMed) abstracts(ctx context.Context, pmids []string) (map[string]string, error) {
	params := p.params()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	var set efetchArticleSet
	if err := p.Client.GetXML(ctx, pubmedBase+"/efetch.fcgi?"+params.Encode(), &set); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(set.Articles))
	for _, a := range set.Articles {
		var parts []string
		for _, at := range a.Citation.Article.Abstract.Texts {
			text := cleanMarkup(at.Inner)
			if text == "" {
				continue
			}
			if at.Label != "" {
				text = at.Label + ": " + text
			}
			parts = append(parts, text)
		}
		out[strings.TrimSpace(a.Citation.PMID)] = strings.Join(parts, " ")
	}
	return out, nil
}

func (p *PubMed) params() url.Values {
	v := url.Values{"db": {"pubmed"}}
	if p.APIKey != "" {
		v.Set("api_key", p.APIKey)
	}
	if p.Email != "" {
		v.Set("email", p.Email)
		v.Set("tool", "litsearch")
	}
	return v
}

func pmidOf(a types.Article) string {
	return strings.TrimSuffix(strings.TrimPrefix(a.URL, "https://pubmed.ncbi.nlm.nih.gov/"), "/")
}

func yearOr(y, fallback int) string {
	if y == 0 {
		y = fallback
	}
	return strconv.Itoa(y)
}

// E-utilities JSON and XML structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

// esummaryResponse keys its result object by PMID next to a "uids" list.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryDoc struct {
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	FullJournalName string `json:"fulljournalname"`
	ELocationID     string `json:"elocationid"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

func (d esummaryDoc) article(pmid string) types.Article {
	names := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}

	year := ""
	if fields := strings.Fields(d.PubDate); len(fields) > 0 {
		year = fields[0]
	}

	return types.Article{
		Authors:  types.OrNA(strings.Join(names, ", ")),
		Title:    types.OrNA(cleanMarkup(d.Title)),
		Year:     types.OrNA(year),
		DOI:      types.OrNA(d.doi()),
		URL:      fmt.Sprintf(pubmedArticleURL, pmid),
		Abstract: types.NotAvailable,
		Venue:    types.OrNA(d.FullJournalName),
	}
}

// doi prefers the articleids entry and falls back to the "doi: ..." part
// of elocationid.
func (d esummaryDoc) doi() string {
	for _, id := range d.ArticleIDs {
		if strings.EqualFold(id.IDType, "doi") && strings.TrimSpace(id.Value) != "" {
			return strings.TrimSpace(id.Value)
		}
	}
	_, rest, ok := strings.Cut(d.ELocationID, "doi:")
	if !ok {
		return ""
	}
	if fields := strings.Fields(rest); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

type efetchArticleSet struct {
	XMLName  xml.Name `xml:"PubmedArticleSet"`
	Articles []struct {
		Citation struct {
			PMID    string `xml:"PMID"`
			Article struct {
				Abstract struct {
					Texts []struct {
						Label string `xml:"Label,attr"`
						Inner string `xml:",innerxml"`
					} `xml:"AbstractText"`
				} `xml:"Abstract"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}
