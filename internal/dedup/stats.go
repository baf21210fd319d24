// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"sort"

	"github.com/pdiddy/litsearch/pkg/types"
)

// SourceStats counts what one database contributed to a run.
type SourceStats struct {
	FilesFound      int `yaml:"files_found"`
	ArticlesLoaded  int `yaml:"articles_loaded"`
	DuplicatesFound int `yaml:"duplicates_found"`
	Unique          int `yaml:"unique"`
}

// Stats holds per-source counters for one collection and deduplication run.
type Stats struct {
	Sources map[types.SourceDatabase]*SourceStats `yaml:"sources"`
}

// NewStats returns empty statistics.
func NewStats() Stats {
	return Stats{Sources: make(map[types.SourceDatabase]*SourceStats)}
}

func (s Stats) source(db types.SourceDatabase) *SourceStats {
	st, ok := s.Sources[db]
	if !ok {
		st = &SourceStats{}
		s.Sources[db] = st
	}
	return st
}

func (s Stats) addUnique(db types.SourceDatabase)    { s.source(db).Unique++ }
func (s Stats) addDuplicate(db types.SourceDatabase) { s.source(db).DuplicatesFound++ }

// Merge copies the file and load counters of other into s. Deduplicate
// fills duplicate and unique counts; Load fills the rest.
func (s Stats) Merge(other Stats) {
	for db, o := range other.Sources {
		st := s.source(db)
		st.FilesFound += o.FilesFound
		st.ArticlesLoaded += o.ArticlesLoaded
		st.DuplicatesFound += o.DuplicatesFound
		st.Unique += o.Unique
	}
}

// Databases returns the sources present in s by priority.
func (s Stats) Databases() []types.SourceDatabase {
	dbs := make([]types.SourceDatabase, 0, len(s.Sources))
	for db := range s.Sources {
		dbs = append(dbs, db)
	}
	sort.Slice(dbs, func(i, j int) bool {
		if dbs[i].Priority() != dbs[j].Priority() {
			return dbs[i].Priority() < dbs[j].Priority()
		}
		return dbs[i] < dbs[j]
	})
	return dbs
}

// Totals sums the counters across sources.
func (s Stats) Totals() SourceStats {
	var t SourceStats
	for _, st := range s.Sources {
		t.FilesFound += st.FilesFound
		t.ArticlesLoaded += st.ArticlesLoaded
		t.DuplicatesFound += st.DuplicatesFound
		t.Unique += st.Unique
	}
	return t
}
