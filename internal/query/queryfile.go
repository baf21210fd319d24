// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/litsearch/pkg/types"
)

// ErrEmptyQuery is returned when a query file holds only whitespace.
var ErrEmptyQuery = errors.New("query file is empty")

const queryExt = ".txt"

// File is a query read from the queries directory. The file name selects the
// database: pubmed.txt queries PubMed, openalex.txt queries OpenAlex.
type File struct {
	Path     string
	Database types.SourceDatabase
	Text     string
}

// DatabaseFromFilename maps "pubmed", "pubmed.txt" or "queries/PubMed.txt"
// to the database it names.
func DatabaseFromFilename(name string) (types.SourceDatabase, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if ext := filepath.Ext(base); ext != "" {
		if !strings.EqualFold(ext, queryExt) {
			return "", fmt.Errorf("query file %q must end in %s", name, queryExt)
		}
		base = strings.TrimSuffix(base, ext)
	}
	return types.ParseSourceDatabase(base)
}

// ReadFile loads name from dir. A bare database name gets the .txt extension;
// a path containing a separator is used as given.
func ReadFile(dir, name string) (*File, error) {
	db, err := DatabaseFromFilename(name)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(name) == "" {
		name += queryExt
	}
	path := name
	if !strings.ContainsRune(name, filepath.Separator) {
		path = filepath.Join(dir, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyQuery, path)
	}

	return &File{Path: path, Database: db, Text: text}, nil
}
