// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litsearch pipeline:
// the normalized article record, the closed set of source databases, and the
// configuration structs loaded by internal/config.
package types

import "strings"

// NotAvailable is the absence marker adapters write for fields a source did
// not provide.
const NotAvailable = "N/A"

// Article is one bibliographic record normalized from a source response.
// Articles are value records: the reconciliation core reads and selects among
// them and only ever sets SourceDatabase.
type Article struct {
	// Authors holds display names joined with ", ", or "N/A".
	Authors string `json:"authors" yaml:"authors"`

	// Title is the article title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Year is a four-digit publication year or "N/A".
	Year string `json:"year" yaml:"year"`

	// DOI is the bare DOI (no resolver prefix) or "N/A".
	DOI string `json:"doi" yaml:"doi"`

	// URL points at the record's landing page.
	URL string `json:"url" yaml:"url"`

	// Abstract is the plain-text abstract or "N/A".
	Abstract string `json:"abstract" yaml:"abstract"`

	// Venue is the journal or source display name or "N/A".
	Venue string `json:"venue" yaml:"venue"`

	// SourceDatabase records provenance once articles are pooled across sources.
	SourceDatabase SourceDatabase `json:"source_database,omitempty" yaml:"source_database,omitempty"`
}

// IsMissing reports whether a field value is empty or the absence marker.
func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, NotAvailable)
}

// OrNA returns s, or NotAvailable when s is missing.
func OrNA(s string) string {
	if IsMissing(s) {
		return NotAvailable
	}
	return s
}

// WithSource returns a copy of a tagged with db.
func (a Article) WithSource(db SourceDatabase) Article {
	a.SourceDatabase = db
	return a
}
