// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/litsearch/pkg/types"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{
			name:  "empty map",
			index: map[string][]int{},
			want:  "",
		},
		{
			name:  "nil map",
			index: nil,
			want:  "",
		},
		{
			name:  "single word",
			index: map[string][]int{"hello": {0}},
			want:  "hello",
		},
		{
			name: "multi-word ordered",
			index: map[string][]int{
				"We":      {0},
				"propose": {1},
				"a":       {2},
				"new":     {3},
				"method":  {4},
			},
			want: "We propose a new method",
		},
		{
			name: "words with shared positions (word appearing multiple times)",
			index: map[string][]int{
				"the": {0, 4},
				"cat": {1},
				"sat": {2},
				"on":  {3},
				"mat": {5},
			},
			want: "the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconstructAbstract(tt.index)
			if got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Mock OpenAlex server ---

const sampleOpenAlexJSON = `{
  "meta": {"count": 3, "per_page": 2, "next_cursor": "Ic3Vy"},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Diabetes risk",
      "doi": "https://doi.org/10.1/x",
      "publication_year": 2021,
      "authorships": [
        {"author": {"id": "A1", "display_name": "John Smith"}},
        {"author": {"id": "A2", "display_name": "Anna Doe"}}
      ],
      "abstract_inverted_index": {
        "We": [0],
        "measure": [1],
        "diabetes": [2],
        "risk": [3]
      },
      "primary_location": {
        "landing_page_url": "https://journal.example/x",
        "source": {"display_name": "Diabetes Care"}
      }
    },
    {
      "id": "https://openalex.org/W3210812345",
      "title": "",
      "display_name": "Untitled fallback",
      "doi": null,
      "publication_year": 2018,
      "authorships": [],
      "abstract_inverted_index": null,
      "primary_location": {"landing_page_url": "https://repo.example/y", "source": null}
    }
  ]
}`

const lastOpenAlexPage = `{
  "meta": {"count": 3, "per_page": 2, "next_cursor": null},
  "results": [
    {"id": "https://openalex.org/W999", "title": "Last", "publication_year": 2020, "authorships": []}
  ]
}`

func openAlexTestServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		*seen = append(*seen, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if q.Get("cursor") == "*" {
			fmt.Fprint(w, sampleOpenAlexJSON)
			return
		}
		fmt.Fprint(w, lastOpenAlexPage)
	}))
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return ts
}

// --- OpenAlex.Search ---

func TestOpenAlexSearch(t *testing.T) {
	var seen []string
	ts := openAlexTestServer(t, &seen)

	o := &OpenAlex{Client: testClient(ts), Email: "test@example.com", BatchSize: 2, MaxResults: 100}
	results, err := o.Search(context.Background(), "diabetes\n risk", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if len(seen) != 2 {
		t.Fatalf("requests = %d, want 2 (cursor pagination)", len(seen))
	}
	if !strings.Contains(seen[0], "mailto=test%40example.com") {
		t.Errorf("query %q should carry mailto", seen[0])
	}
	if !strings.Contains(seen[0], "search=diabetes+risk") {
		t.Errorf("query %q should collapse whitespace in the search text", seen[0])
	}
	if !strings.Contains(seen[1], "cursor=Ic3Vy") {
		t.Errorf("second query %q should follow next_cursor", seen[1])
	}

	r0 := results[0]
	// DOI should be stripped of https://doi.org/ prefix.
	if r0.DOI != "10.1/x" {
		t.Errorf("DOI = %q, want DOI without prefix", r0.DOI)
	}
	if r0.URL != "https://doi.org/10.1/x" {
		t.Errorf("URL = %q, want DOI URL", r0.URL)
	}
	if r0.Authors != "John Smith, Anna Doe" {
		t.Errorf("Authors = %q", r0.Authors)
	}
	if r0.Year != "2021" {
		t.Errorf("Year = %q, want 2021", r0.Year)
	}
	if r0.Abstract != "We measure diabetes risk" {
		t.Errorf("Abstract = %q, should be reconstructed", r0.Abstract)
	}
	if r0.Venue != "Diabetes Care" {
		t.Errorf("Venue = %q", r0.Venue)
	}

	// Second result has no DOI → landing page URL, display_name title.
	r1 := results[1]
	if r1.DOI != types.NotAvailable {
		t.Errorf("DOI = %q, want N/A", r1.DOI)
	}
	if r1.URL != "https://repo.example/y" {
		t.Errorf("URL = %q, want landing page", r1.URL)
	}
	if r1.Title != "Untitled fallback" {
		t.Errorf("Title = %q, want display_name fallback", r1.Title)
	}
	if r1.Authors != types.NotAvailable || r1.Abstract != types.NotAvailable || r1.Venue != types.NotAvailable {
		t.Errorf("missing fields should be N/A: %+v", r1)
	}

	// Third result has neither DOI nor location → work id.
	if results[2].URL != "https://openalex.org/W999" {
		t.Errorf("URL = %q, want OpenAlex ID fallback", results[2].URL)
	}
}

func TestOpenAlexSearchLimit(t *testing.T) {
	var seen []string
	ts := openAlexTestServer(t, &seen)

	o := &OpenAlex{Client: testClient(ts), BatchSize: 500}
	results, err := o.Search(context.Background(), "diabetes", Options{Limit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if len(seen) != 1 || !strings.Contains(seen[0], "per-page=1") {
		t.Errorf("requests = %v, want one page of size 1", seen)
	}
}

func TestOpenAlexEmptyQuery(t *testing.T) {
	o := &OpenAlex{}
	if _, err := o.Search(context.Background(), " \n ", Options{}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestOpenAlexHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	o := &OpenAlex{Client: testClient(ts)}
	_, err := o.Search(context.Background(), "x", Options{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 403") {
		t.Errorf("err = %v, want HTTP 403", err)
	}
}

// --- Year filter ---

func TestOpenAlexYearFilter(t *testing.T) {
	tests := []struct {
		name  string
		years YearRange
		want  string
	}{
		{"none", YearRange{}, ""},
		{"closed range", YearRange{From: 2015, To: 2020}, "publication_year:2015-2020"},
		{"single year", YearRange{From: 2019, To: 2019}, "publication_year:2019"},
		{"from only", YearRange{From: 2015}, "publication_year:>2014"},
		{"to only", YearRange{To: 2020}, "publication_year:<2021"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openAlexYearFilter(tt.years); got != tt.want {
				t.Errorf("openAlexYearFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}
