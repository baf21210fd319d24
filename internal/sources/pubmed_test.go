// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litsearch/pkg/types"
)

var pubmedSummaries = map[string]string{
	"101": `{"uid": "101", "title": "Diabetes risk in adults.", "pubdate": "2020 Mar 5",
		"fulljournalname": "Diabetes Care", "elocationid": "doi: 10.9/ignored",
		"authors": [{"name": "Smith J"}, {"name": "Doe A"}],
		"articleids": [{"idtype": "pubmed", "value": "101"}, {"idtype": "doi", "value": "10.1/a"}]}`,
	"102": `{"uid": "102", "title": "Insulin &amp; obesity", "pubdate": "2019",
		"fulljournalname": "Obesity", "elocationid": "pii: S123. doi: 10.2/b",
		"authors": [{"name": "Roe B"}], "articleids": []}`,
	"103": `{"uid": "103", "title": "No metadata", "pubdate": "", "authors": []}`,
}

// pubmedServer serves esearch, esummary and efetch for PMIDs 101..103.
type pubmedServer struct {
	mu       sync.Mutex
	searches []map[string]string
}

func (s *pubmedServer) handler(t *testing.T) http.Handler {
	ids := []string{"101", "102", "103"}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			s.mu.Lock()
			s.searches = append(s.searches, map[string]string{
				"term":     q.Get("term"),
				"retstart": q.Get("retstart"),
				"retmax":   q.Get("retmax"),
				"mindate":  q.Get("mindate"),
				"maxdate":  q.Get("maxdate"),
				"api_key":  q.Get("api_key"),
			})
			s.mu.Unlock()

			start, _ := strconv.Atoi(q.Get("retstart"))
			n, _ := strconv.Atoi(q.Get("retmax"))
			end := min(start+n, len(ids))
			page := []string{}
			if start < len(ids) {
				page = ids[start:end]
			}
			body, _ := json.Marshal(map[string]any{
				"esearchresult": map[string]any{"count": "3", "idlist": page},
			})
			w.Write(body)

		case strings.HasSuffix(r.URL.Path, "/esummary.fcgi"):
			requested := strings.Split(q.Get("id"), ",")
			uids, _ := json.Marshal(requested)
			parts := []string{`"uids": ` + string(uids)}
			for _, id := range requested {
				parts = append(parts, fmt.Sprintf("%q: %s", id, pubmedSummaries[id]))
			}
			fmt.Fprintf(w, `{"header": {}, "result": {%s}}`, strings.Join(parts, ","))

		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fmt.Fprint(w, `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">101</PMID>
      <Article>
        <Abstract>
          <AbstractText Label="BACKGROUND">Risk of <i>diabetes</i> rises.</AbstractText>
          <AbstractText Label="RESULTS">Strong association.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">102</PMID>
      <Article></Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`)

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func withPubMedServer(t *testing.T) (*pubmedServer, *httptest.Server) {
	t.Helper()
	srv := &pubmedServer{}
	ts := httptest.NewServer(srv.handler(t))
	old := pubmedBase
	pubmedBase = ts.URL
	t.Cleanup(func() {
		pubmedBase = old
		ts.Close()
	})
	return srv, ts
}

func TestPubMedSearch(t *testing.T) {
	srv, ts := withPubMedServer(t)

	p := &PubMed{Client: testClient(ts), APIKey: "secret", BatchSize: 2, MaxResults: 100, FetchAbstracts: true}
	articles, err := p.Search(context.Background(), "diabetes[tiab]", Options{})
	require.NoError(t, err)
	require.Len(t, articles, 3)

	// Two esearch pages of two ids each; the second returns the last id.
	require.Len(t, srv.searches, 2)
	assert.Equal(t, "0", srv.searches[0]["retstart"])
	assert.Equal(t, "2", srv.searches[1]["retstart"])
	assert.Equal(t, "diabetes[tiab]", srv.searches[0]["term"])
	assert.Equal(t, "secret", srv.searches[0]["api_key"])

	a := articles[0]
	assert.Equal(t, "Smith J, Doe A", a.Authors)
	assert.Equal(t, "Diabetes risk in adults.", a.Title)
	assert.Equal(t, "2020", a.Year)
	assert.Equal(t, "10.1/a", a.DOI, "articleids take precedence over elocationid")
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/101/", a.URL)
	assert.Equal(t, "Diabetes Care", a.Venue)
	assert.Equal(t, "BACKGROUND: Risk of diabetes rises. RESULTS: Strong association.", a.Abstract)

	b := articles[1]
	assert.Equal(t, "Insulin & obesity", b.Title)
	assert.Equal(t, "10.2/b", b.DOI)
	assert.Equal(t, types.NotAvailable, b.Abstract, "empty efetch abstract keeps the marker")

	c := articles[2]
	assert.Equal(t, types.NotAvailable, c.Authors)
	assert.Equal(t, types.NotAvailable, c.Year)
	assert.Equal(t, types.NotAvailable, c.DOI)
	assert.Equal(t, types.NotAvailable, c.Venue)
}

func TestPubMedSearchLimitAndYears(t *testing.T) {
	srv, ts := withPubMedServer(t)

	p := &PubMed{Client: testClient(ts), BatchSize: 500, MaxResults: 100}
	articles, err := p.Search(context.Background(), "diabetes", Options{Limit: 2, Years: YearRange{From: 2015}})
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	require.Len(t, srv.searches, 1)
	assert.Equal(t, "2", srv.searches[0]["retmax"])
	assert.Equal(t, "2015", srv.searches[0]["mindate"])
	assert.Equal(t, "3000", srv.searches[0]["maxdate"])
	assert.Equal(t, "", srv.searches[0]["api_key"])

	// Without FetchAbstracts the esummary marker stays.
	assert.Equal(t, types.NotAvailable, articles[0].Abstract)
}

func TestPubMedNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/esearch.fcgi") {
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"esearchresult": {"count": "0", "idlist": []}}`)
	}))
	defer ts.Close()
	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	p := &PubMed{Client: testClient(ts)}
	articles, err := p.Search(context.Background(), "nothing", Options{})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestPubMedHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "bad term")
	}))
	defer ts.Close()
	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	p := &PubMed{Client: testClient(ts)}
	_, err := p.Search(context.Background(), "x", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestPubMedEmptyQuery(t *testing.T) {
	_, err := (&PubMed{}).Search(context.Background(), "  ", Options{})
	assert.Error(t, err)
}

func TestESummaryDOI(t *testing.T) {
	tests := []struct {
		name string
		doc  esummaryDoc
		want string
	}{
		{"elocationid only", esummaryDoc{ELocationID: "doi: 10.5/x"}, "10.5/x"},
		{"pii then doi", esummaryDoc{ELocationID: "pii: e123 doi: 10.5/y"}, "10.5/y"},
		{"no doi", esummaryDoc{ELocationID: "pii: e123"}, ""},
		{"empty", esummaryDoc{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.doi(); got != tt.want {
				t.Errorf("doi() = %q, want %q", got, tt.want)
			}
		})
	}
}
