// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litsearch/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form.
// Field names follow the CSL-JSON/CSL-YAML schema so the output loads in
// Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// WriteCSL writes articles as a CSL-YAML list to w.
func WriteCSL(w io.Writer, articles []types.Article) error {
	items := make([]CSLItem, len(articles))
	for i, a := range articles {
		items[i] = toCSLItem(a, i)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(a types.Article, index int) CSLItem {
	item := CSLItem{
		ID:    cslID(a, index),
		Type:  "article-journal",
		Title: a.Title,
	}
	if !types.IsMissing(a.Abstract) {
		item.Abstract = a.Abstract
	}
	if !types.IsMissing(a.Venue) {
		item.ContainerTitle = a.Venue
	}
	if !types.IsMissing(a.DOI) {
		item.DOI = a.DOI
	}
	if !types.IsMissing(a.URL) {
		item.URL = a.URL
	}
	if year, err := strconv.Atoi(strings.TrimSpace(a.Year)); err == nil && year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}

	if !types.IsMissing(a.Authors) {
		familyFirst := a.SourceDatabase != types.OpenAlex
		for _, name := range strings.Split(a.Authors, ",") {
			if n := parseAuthorName(name, familyFirst); n != (CSLName{}) {
				item.Author = append(item.Author, n)
			}
		}
	}
	return item
}

// cslID prefers the DOI, then the URL, then a positional id.
func cslID(a types.Article, index int) string {
	switch {
	case !types.IsMissing(a.DOI):
		return a.DOI
	case !types.IsMissing(a.URL):
		return a.URL
	default:
		return "item-" + strconv.Itoa(index+1)
	}
}

// parseAuthorName splits a display name into CSL parts. PubMed and Europe PMC
// write "Family Initials" ("Smith JA"); OpenAlex writes "Given Family".
// Single-token names use the literal field.
func parseAuthorName(name string, familyFirst bool) CSLName {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	if familyFirst {
		return CSLName{Family: name[:idx], Given: name[idx+1:]}
	}
	return CSLName{Given: name[:idx], Family: name[idx+1:]}
}
