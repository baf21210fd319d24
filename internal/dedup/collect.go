// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/pkg/types"
)

// GroupsDir holds the per-group intermediates of the AND workaround. They
// are partial result sets and never take part in pooling.
const GroupsDir = "groups"

// SourceFile is one result file attributed to the database it came from.
type SourceFile struct {
	Path     string
	Database types.SourceDatabase
}

// Collect lists the JSON result files under <outputDir>/<db>/ for each
// database, recursing into subdirectories. A database without a directory
// contributes no files.
func Collect(outputDir string, databases []types.SourceDatabase) ([]SourceFile, error) {
	var files []SourceFile
	for _, db := range databases {
		root := filepath.Join(outputDir, string(db))
		var found []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				if path != root && d.Name() == GroupsDir {
					return fs.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".json") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s results: %w", db, err)
		}
		sort.Strings(found)
		for _, p := range found {
			files = append(files, SourceFile{Path: p, Database: db})
		}
	}
	return files, nil
}

// LoadWarning reports a result file that could not be read.
type LoadWarning struct {
	Path string
	Err  error
}

// Load reads every file, stamps source_database on each article and counts
// files and articles per source. Unreadable files are skipped and returned
// as warnings.
func Load(files []SourceFile) ([]types.Article, Stats, []LoadWarning) {
	stats := NewStats()
	var (
		pooled   []types.Article
		warnings []LoadWarning
	)
	for _, f := range files {
		st := stats.source(f.Database)
		st.FilesFound++

		articles, err := export.LoadArticles(f.Path)
		if err != nil {
			warnings = append(warnings, LoadWarning{Path: f.Path, Err: err})
			continue
		}
		for _, a := range articles {
			pooled = append(pooled, a.WithSource(f.Database))
		}
		st.ArticlesLoaded += len(articles)
	}
	return pooled, stats, warnings
}
