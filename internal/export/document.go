// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes article sets to CSV, JSON and CSL-YAML files and
// reads previously written JSON result files back.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/litsearch/pkg/types"
)

// Version is stamped into every JSON result file.
const Version = "1.0.0"

// Query types recorded in result metadata.
const (
	QueryTypeSearch = "search"
	QueryTypeGroup  = "AND group"
	QueryTypeMerge  = "AND merge"
	QueryTypeDedup  = "cross-database deduplication"
)

// Document is the on-disk shape of a JSON result file.
type Document struct {
	Metadata Metadata        `json:"metadata"`
	Articles []types.Article `json:"articles"`
}

// Metadata describes how a result file was produced.
type Metadata struct {
	RunID        string      `json:"run_id"`
	Database     string      `json:"database,omitempty"`
	Databases    []string    `json:"databases,omitempty"`
	Query        string      `json:"query,omitempty"`
	QueryType    string      `json:"query_type"`
	Timestamp    string      `json:"timestamp"`
	TotalResults int         `json:"total_results"`
	Version      string      `json:"version"`
	Statistics   *Statistics `json:"statistics,omitempty"`
}

// Statistics summarizes a deduplication run.
type Statistics struct {
	FilesProcessed    int `json:"files_processed"`
	ArticlesLoaded    int `json:"articles_loaded"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	UniqueArticles    int `json:"unique_articles"`
}

// WriteJSON encodes doc as indented JSON without HTML escaping.
func WriteJSON(w io.Writer, doc Document) error {
	if doc.Articles == nil {
		doc.Articles = []types.Article{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// DecodeArticles reads a result document from r and returns its articles.
// All top-level keys other than "articles" are ignored; a document without
// the key yields no articles.
func DecodeArticles(r io.Reader) ([]types.Article, error) {
	var doc struct {
		Articles []types.Article `json:"articles"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return doc.Articles, nil
}

// LoadArticles reads the articles of the result file at path.
func LoadArticles(path string) ([]types.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening result file: %w", err)
	}
	defer f.Close()

	articles, err := DecodeArticles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}
