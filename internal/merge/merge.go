// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge applies AND semantics to two result sets fetched
// separately for the groups of a split query. An article survives when it
// appears in both sets and its title or abstract mentions a term from each
// group.
package merge

import (
	"fmt"
	"strings"

	"github.com/pdiddy/litsearch/internal/dedup"
	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/pkg/types"
)

// Result holds the merged articles and the size of each stage.
type Result struct {
	// Articles satisfy both groups, one per publication. Empty is a valid
	// outcome, not an error.
	Articles []types.Article

	// Matched counts A articles that had an identity match in B.
	Matched int

	// Validated counts matched articles that mention terms from both groups.
	Validated int

	// DuplicatesRemoved counts validated articles dropped by the final pass.
	DuplicatesRemoved int
}

type matchKey struct {
	authors string
	title   string
}

func keyOf(a types.Article) matchKey {
	return matchKey{
		authors: strings.ToLower(strings.TrimSpace(a.Authors)),
		title:   strings.ToLower(strings.TrimSpace(a.Title)),
	}
}

// Merge intersects resultsA and resultsB on exact lowercased authors and
// title, keeps matches whose content carries a term from termsA and a term
// from termsB, and removes repeated keys keeping the first. When the
// validated set spans more than one source database, the final pass is the
// full cross-source deduplication instead.
func Merge(resultsA, resultsB []types.Article, termsA, termsB []string) Result {
	index := make(map[matchKey]struct{}, len(resultsB))
	for _, b := range resultsB {
		index[keyOf(b)] = struct{}{}
	}

	var matched []types.Article
	for _, a := range resultsA {
		if _, ok := index[keyOf(a)]; ok {
			matched = append(matched, a)
		}
	}

	lowerA, lowerB := lowerTerms(termsA), lowerTerms(termsB)
	var validated []types.Article
	for _, a := range matched {
		content := Content(a)
		if containsAny(content, lowerA) && containsAny(content, lowerB) {
			validated = append(validated, a)
		}
	}

	var unique []types.Article
	if multiSource(validated) {
		unique = dedup.Deduplicate(validated).Articles
	} else {
		unique = uniqueByKey(validated)
	}

	return Result{
		Articles:          unique,
		Matched:           len(matched),
		Validated:         len(validated),
		DuplicatesRemoved: len(validated) - len(unique),
	}
}

// MergeFiles loads two persisted result files and merges them. A file
// without an "articles" key contributes zero articles.
func MergeFiles(pathA, pathB string, termsA, termsB []string) (Result, error) {
	resultsA, err := export.LoadArticles(pathA)
	if err != nil {
		return Result{}, fmt.Errorf("loading group A: %w", err)
	}
	resultsB, err := export.LoadArticles(pathB)
	if err != nil {
		return Result{}, fmt.Errorf("loading group B: %w", err)
	}
	return Merge(resultsA, resultsB, termsA, termsB), nil
}

// Content is the lowercased title and abstract joined by a space. Missing
// fields contribute an empty string so the absence marker never matches a
// term.
func Content(a types.Article) string {
	title, abstract := a.Title, a.Abstract
	if types.IsMissing(title) {
		title = ""
	}
	if types.IsMissing(abstract) {
		abstract = ""
	}
	return strings.ToLower(title) + " " + strings.ToLower(abstract)
}

func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(t))
	}
	return out
}

// containsAny reports whether content holds at least one term. An empty
// term list never matches.
func containsAny(content string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(content, t) {
			return true
		}
	}
	return false
}

func uniqueByKey(articles []types.Article) []types.Article {
	seen := make(map[matchKey]struct{}, len(articles))
	var out []types.Article
	for _, a := range articles {
		k := keyOf(a)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

func multiSource(articles []types.Article) bool {
	var first types.SourceDatabase
	for _, a := range articles {
		if a.SourceDatabase == "" {
			continue
		}
		if first == "" {
			first = a.SourceDatabase
		} else if a.SourceDatabase != first {
			return true
		}
	}
	return false
}
