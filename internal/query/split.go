// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query parses raw query files: it detects AND logic between two term
// groups, splits the groups, and derives the validation terms and labels the
// merge stage needs.
package query

import (
	"errors"
	"strings"
	"unicode"
)

// ErrMalformedQuery is returned by Split when no AND split point exists.
var ErrMalformedQuery = errors.New("query does not contain valid AND logic")

const (
	andLine      = "AND"
	inlineAnd    = " AND "
	orDelimiter  = " OR "
	maxLabelRune = 20
)

// Groups holds the two sides of an AND query.
type Groups struct {
	A string
	B string
}

// Group is one parsed side of an AND query.
type Group struct {
	// Expression is passed to the source unchanged.
	Expression string

	// Terms are the lowercased, unquoted alternatives used to validate merged articles.
	Terms []string

	// Label is a short identifier-safe name for file naming and logging.
	Label string
}

// HasAndLogic reports whether query joins two term groups with AND, either as
// a standalone AND line or, for single-line queries only, as exactly one
// inline " AND ".
func HasAndLogic(query string) bool {
	for _, line := range strings.Split(strings.TrimSpace(query), "\n") {
		if isAndLine(line) {
			return true
		}
	}

	if strings.Contains(query, "\n") {
		return false
	}
	return strings.Count(query, inlineAnd) == 1
}

// Split returns the text before and after the first AND line. Without an AND
// line it falls back to the first inline " AND ". Either side may be empty.
func Split(query string) (Groups, error) {
	lines := strings.Split(strings.TrimSpace(query), "\n")

	for i, line := range lines {
		if isAndLine(line) {
			return Groups{
				A: strings.TrimSpace(strings.Join(lines[:i], "\n")),
				B: strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
			}, nil
		}
	}

	if a, b, ok := strings.Cut(query, inlineAnd); ok {
		return Groups{A: strings.TrimSpace(a), B: strings.TrimSpace(b)}, nil
	}

	return Groups{}, ErrMalformedQuery
}

func isAndLine(line string) bool {
	return strings.ToUpper(strings.TrimSpace(line)) == andLine
}

// FirstTerm derives a label from the first OR alternative of group:
// quotes stripped, punctuation replaced with '_', whitespace runs joined
// with '_', lowercased and cut to 20 characters.
//
//	FirstTerm(`"Type 2 Diabetes" OR obesity`) == "type_2_diabetes"
func FirstTerm(group string) string {
	first, _, _ := strings.Cut(strings.ReplaceAll(group, "\n", " "), orDelimiter)
	first = unquote(first)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return '_'
	}, first)

	label := []rune(strings.ToLower(strings.Join(strings.Fields(cleaned), "_")))
	if len(label) > maxLabelRune {
		label = label[:maxLabelRune]
	}
	return string(label)
}

// ValidationTerms splits group on " OR " (every line counts as an extra
// alternative) and returns the lowercased, unquoted, non-empty pieces in
// order. Duplicates are kept.
func ValidationTerms(group string) []string {
	var terms []string
	for _, part := range strings.Split(strings.ReplaceAll(group, "\n", orDelimiter), orDelimiter) {
		term := strings.ToLower(strings.TrimSpace(unquote(part)))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ParseGroup builds a Group from one side of a split query.
func ParseGroup(text string) Group {
	return Group{
		Expression: text,
		Terms:      ValidationTerms(text),
		Label:      FirstTerm(text),
	}
}

// unquote trims surrounding whitespace, then double quotes, then single quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
