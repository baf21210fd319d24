// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litsearch/pkg/types"
)

func article(authors, title, abstract string) types.Article {
	return types.Article{
		Authors:  authors,
		Title:    title,
		Year:     "2020",
		DOI:      types.NotAvailable,
		URL:      types.NotAvailable,
		Abstract: abstract,
	}
}

func TestMergeMatchAndValidate(t *testing.T) {
	termsA := []string{"diabetes", "type 2 diabetes"}
	termsB := []string{"hypertension"}

	both := article("Smith J", "Diabetes and hypertension", "N/A")
	onlyA := article("Doe A", "Diabetes outcomes", "N/A")
	abstractB := article("Roe B", "Diabetes cohort", "Blood pressure and HYPERTENSION in adults.")
	// Matches in B by identity but mentions no Group A term.
	spurious := article("Poe C", "Hypertension in athletes", "N/A")

	resultsA := []types.Article{both, onlyA, abstractB, spurious}
	resultsB := []types.Article{
		article(" smith j ", "DIABETES AND HYPERTENSION ", "N/A"),
		article("Roe B", "Diabetes cohort", "different abstract"),
		article("Poe C", "Hypertension in athletes", "N/A"),
	}

	res := Merge(resultsA, resultsB, termsA, termsB)
	assert.Equal(t, []types.Article{both, abstractB}, res.Articles)
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 2, res.Validated)
	assert.Equal(t, 0, res.DuplicatesRemoved)
}

func TestMergeKeepsAArticle(t *testing.T) {
	a := article("Smith J", "Diabetes and hypertension", "from A")
	b := article("smith j", "diabetes and hypertension", "from B")

	res := Merge([]types.Article{a}, []types.Article{b}, []string{"diabetes"}, []string{"hypertension"})
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "from A", res.Articles[0].Abstract)
}

func TestMergeRemovesRepeatedKeys(t *testing.T) {
	a1 := article("Smith J", "Diabetes and hypertension", "first")
	a2 := article("SMITH J", "diabetes and hypertension", "second")
	b := article("Smith J", "Diabetes and hypertension", "N/A")

	res := Merge([]types.Article{a1, a2}, []types.Article{b, b}, []string{"diabetes"}, []string{"hypertension"})
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "first", res.Articles[0].Abstract)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestMergeEmptyResults(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []types.Article
		termsA []string
		termsB []string
	}{
		{"no inputs", nil, nil, []string{"x"}, []string{"y"}},
		{"no identity match", []types.Article{article("A", "x y", "")}, []types.Article{article("B", "x y", "")}, []string{"x"}, []string{"y"}},
		{"empty term list never validates", []types.Article{article("A", "x y", "")}, []types.Article{article("A", "x y", "")}, nil, []string{"y"}},
		{"absence marker is not content", []types.Article{article("A", "x", "N/A")}, []types.Article{article("A", "x", "N/A")}, []string{"x"}, []string{"n/a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Merge(tt.a, tt.b, tt.termsA, tt.termsB)
			assert.Empty(t, res.Articles)
		})
	}
}

func TestMergeMultiSourceDelegatesToDedup(t *testing.T) {
	oa := article("Smith J", "Diabetes and hypertension.", "N/A")
	oa.SourceDatabase = types.OpenAlex
	pm := article("Smith J", "Diabetes and hypertension", "N/A")
	pm.SourceDatabase = types.PubMed

	res := Merge([]types.Article{oa, pm}, []types.Article{oa, pm}, []string{"diabetes"}, []string{"hypertension"})

	// The titles differ only in trailing punctuation, which the
	// cross-source normalization removes; PubMed wins.
	require.Len(t, res.Articles, 1)
	assert.Equal(t, types.PubMed, res.Articles[0].SourceDatabase)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestContent(t *testing.T) {
	assert.Equal(t, "title abstract", Content(types.Article{Title: "Title", Abstract: "Abstract"}))
	assert.Equal(t, "title ", Content(types.Article{Title: "Title", Abstract: "N/A"}))
	assert.Equal(t, " ", Content(types.Article{}))
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(pathA, []byte(`{"metadata": {}, "articles": [
		{"authors": "Smith J", "title": "Diabetes and hypertension", "abstract": "N/A"}
	]}`), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte(`{"metadata": {}, "articles": [
		{"authors": "Smith J", "title": "Diabetes and hypertension", "abstract": "N/A"}
	]}`), 0o644))

	res, err := MergeFiles(pathA, pathB, []string{"diabetes"}, []string{"hypertension"})
	require.NoError(t, err)
	assert.Len(t, res.Articles, 1)

	noArticles := filepath.Join(dir, "none.json")
	require.NoError(t, os.WriteFile(noArticles, []byte(`{"metadata": {}}`), 0o644))
	res, err = MergeFiles(pathA, noArticles, []string{"diabetes"}, []string{"hypertension"})
	require.NoError(t, err)
	assert.Empty(t, res.Articles)

	_, err = MergeFiles(filepath.Join(dir, "missing.json"), pathB, nil, nil)
	assert.Error(t, err)
}
