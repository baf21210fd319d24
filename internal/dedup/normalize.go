// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"html"
	"strings"

	"github.com/pdiddy/litsearch/pkg/types"
)

const (
	trailingPunct     = ".!?;:,"
	abstractPrefixLen = 200
)

// Key is the primary identity of an article: normalized authors and title.
type Key struct {
	Authors string
	Title   string
}

// KeyOf returns the primary grouping key of a.
func KeyOf(a types.Article) Key {
	return Key{Authors: NormalizeAuthors(a.Authors), Title: NormalizeTitle(a.Title)}
}

// NormalizeAuthors lowercases and trims an author string.
func NormalizeAuthors(authors string) string {
	return strings.ToLower(strings.TrimSpace(authors))
}

// NormalizeTitle decodes HTML entities, drops trailing punctuation from
// ".!?;:,", collapses whitespace runs and lowercases. The title is trimmed
// before the punctuation is stripped, so "Title. " and "Title" share a key.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(html.UnescapeString(title))
	t = strings.TrimRight(t, trailingPunct)
	return strings.ToLower(collapseSpace(t))
}

// NormalizeAbstract decodes HTML entities, collapses whitespace, lowercases
// and keeps the first 200 characters. Missing abstracts normalize to "".
func NormalizeAbstract(abstract string) string {
	if types.IsMissing(abstract) {
		return ""
	}
	a := []rune(strings.ToLower(collapseSpace(html.UnescapeString(abstract))))
	if len(a) > abstractPrefixLen {
		a = a[:abstractPrefixLen]
	}
	return string(a)
}

// normalizeYear maps blank years onto the absence marker so that "" and
// "N/A" count as one year value.
func normalizeYear(year string) string {
	if types.IsMissing(year) {
		return types.NotAvailable
	}
	return strings.TrimSpace(year)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Jaccard returns |A∩B| / |A∪B| over the whitespace-separated word sets of a
// and b. Either side empty yields 0.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
