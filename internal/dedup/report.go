// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litsearch/pkg/types"
)

// Report is the YAML summary written next to deduplicated output.
type Report struct {
	Timestamp time.Time                             `yaml:"timestamp"`
	Databases []types.SourceDatabase                `yaml:"databases"`
	Totals    SourceStats                           `yaml:"totals"`
	Sources   map[types.SourceDatabase]*SourceStats `yaml:"sources"`
	Warnings  []string                              `yaml:"warnings,omitempty"`
	Discards  []ReportEntry                         `yaml:"discards,omitempty"`
}

// ReportEntry is one discarded record in a Report.
type ReportEntry struct {
	Source     types.SourceDatabase `yaml:"source"`
	Authors    string               `yaml:"authors"`
	Title      string               `yaml:"title"`
	Year       string               `yaml:"year"`
	KeptSource types.SourceDatabase `yaml:"kept_source"`
	KeptID     string               `yaml:"kept_id"`
	Reason     Reason               `yaml:"reason"`
	Evidence   Evidence             `yaml:"evidence,omitempty"`
}

// NewReport summarizes a run from its statistics, discards and load warnings.
func NewReport(now time.Time, stats Stats, discards []Discard, warnings []LoadWarning) Report {
	r := Report{
		Timestamp: now,
		Databases: stats.Databases(),
		Totals:    stats.Totals(),
		Sources:   stats.Sources,
	}
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", w.Path, w.Err))
	}
	for _, d := range discards {
		r.Discards = append(r.Discards, ReportEntry{
			Source:     d.Article.SourceDatabase,
			Authors:    d.Article.Authors,
			Title:      d.Article.Title,
			Year:       d.Article.Year,
			KeptSource: d.Kept.SourceDatabase,
			KeptID:     KeptID(d.Kept),
			Reason:     d.Reason,
			Evidence:   d.Evidence,
		})
	}
	return r
}

// WriteReport saves r as YAML at path.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
