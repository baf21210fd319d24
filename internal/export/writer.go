// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileTimestamp is the layout of the timestamp suffix in output file names.
const FileTimestamp = "2006-01-02_15-04-05"

const (
	csvDir        = "csv"
	jsonDir       = "json"
	cslDir        = "csl"
	metaTimestamp = "2006-01-02 15:04:05"
)

// Files identifies the files written for one result set.
type Files struct {
	CSV  string
	JSON string

	// CSL is set only when the writer also exports CSL-YAML.
	CSL string
}

// Writer stores result sets under Dir/csv and Dir/json.
type Writer struct {
	Dir string

	// WithSource adds the source_database column to CSV output.
	WithSource bool

	// CSL additionally writes <Dir>/csl/<name>_<ts>.yaml for reference managers.
	CSL bool

	// Now returns the timestamp used in file names; defaults to time.Now.
	Now func() time.Time
}

// Save writes doc as <Dir>/csv/<name>_<ts>.csv and <Dir>/json/<name>_<ts>.json.
// It fills the run id, timestamp, total and version metadata when unset.
func (w Writer) Save(name string, doc Document) (Files, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now()

	if doc.Metadata.RunID == "" {
		doc.Metadata.RunID = uuid.NewString()
	}
	if doc.Metadata.Timestamp == "" {
		doc.Metadata.Timestamp = ts.Format(metaTimestamp)
	}
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = Version
	}
	doc.Metadata.TotalResults = len(doc.Articles)

	subdirs := []string{csvDir, jsonDir}
	if w.CSL {
		subdirs = append(subdirs, cslDir)
	}
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(w.Dir, sub), 0o755); err != nil {
			return Files{}, fmt.Errorf("creating output directory: %w", err)
		}
	}

	base := fmt.Sprintf("%s_%s", name, ts.Format(FileTimestamp))
	files := Files{
		CSV:  filepath.Join(w.Dir, csvDir, base+".csv"),
		JSON: filepath.Join(w.Dir, jsonDir, base+".json"),
	}

	if err := writeFile(files.CSV, func(f *os.File) error {
		return WriteCSV(f, doc.Articles, w.WithSource)
	}); err != nil {
		return Files{}, fmt.Errorf("writing CSV: %w", err)
	}
	if err := writeFile(files.JSON, func(f *os.File) error {
		return WriteJSON(f, doc)
	}); err != nil {
		return Files{}, fmt.Errorf("writing JSON: %w", err)
	}
	if w.CSL {
		files.CSL = filepath.Join(w.Dir, cslDir, base+".yaml")
		if err := writeFile(files.CSL, func(f *os.File) error {
			return WriteCSL(f, doc.Articles)
		}); err != nil {
			return Files{}, fmt.Errorf("writing CSL: %w", err)
		}
	}

	return files, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
