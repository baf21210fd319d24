package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/litsearch/internal/dedup"
	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/pkg/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatJSON)
	}
	return nil
}

// render prints doc in the requested terminal format.
func render(w io.Writer, doc export.Document, format string) error {
	if format == formatJSON {
		return export.WriteJSON(w, doc)
	}
	printTable(w, doc.Articles)
	return nil
}

// printTable writes articles as an aligned table.
func printTable(w io.Writer, articles []types.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %s\n", "#", "Title", "Authors", "Year", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 104))

	for i, a := range articles {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i+1, truncate(a.Title, 60), formatAuthors(a.Authors), truncate(a.Year, 4), a.SourceDatabase.DisplayName())
	}
	fmt.Fprintf(w, "\n%d results\n", len(articles))
}

// formatAuthors shortens a comma-separated author list to its first author.
func formatAuthors(authors string) string {
	first, rest, multiple := strings.Cut(authors, ",")
	if !multiple || strings.TrimSpace(rest) == "" {
		return truncate(first, 20)
	}
	return truncate(strings.TrimSpace(first), 14) + " et al."
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// printFiles lists the files written for one result set.
func printFiles(w io.Writer, files export.Files) {
	fmt.Fprintf(w, "  → %s\n", files.CSV)
	fmt.Fprintf(w, "  → %s\n", files.JSON)
	if files.CSL != "" {
		fmt.Fprintf(w, "  → %s\n", files.CSL)
	}
}

// printStats writes the per-source deduplication statistics.
func printStats(w io.Writer, stats dedup.Stats) {
	fmt.Fprintf(w, "%-12s  %6s  %8s  %10s  %6s\n", "Source", "Files", "Loaded", "Duplicates", "Unique")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, db := range stats.Databases() {
		s := stats.Sources[db]
		fmt.Fprintf(w, "%-12s  %6d  %8d  %10d  %6d\n", db.DisplayName(), s.FilesFound, s.ArticlesLoaded, s.DuplicatesFound, s.Unique)
	}
	t := stats.Totals()
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-12s  %6d  %8d  %10d  %6d\n", "Total", t.FilesFound, t.ArticlesLoaded, t.DuplicatesFound, t.Unique)
}
