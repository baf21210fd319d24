package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsearch/internal/dedup"
	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/pkg/types"
)

// dedupDir receives deduplicated result sets under the output directory.
const dedupDir = "deduplicated"

var dedupCmd = &cobra.Command{
	Use:   "dedup [database...|all]",
	Short: "Deduplicate saved results across databases",
	Long: `Dedup pools every JSON result file under output/<database>/ for the named
databases (all of them by default), removes duplicates and writes the unique
set to output/deduplicated/ together with a YAML report of every discarded
record.

Records are duplicates when authors and title match after normalization.
When their publication years differ they are only merged on a shared DOI,
a shared URL or near-identical abstracts. The kept record comes from the
highest-priority source: PubMed, then Europe PMC, then OpenAlex.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().String("format", formatTable, "terminal output: table or json")
	dedupCmd.Flags().Bool("csl", false, "also export CSL-YAML for reference managers")
	dedupCmd.Flags().Bool("list", false, "print the unique articles after the statistics")

	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	csl, _ := cmd.Flags().GetBool("csl")
	list, _ := cmd.Flags().GetBool("list")
	if err := checkFormat(format); err != nil {
		return err
	}

	databases, all, err := parseDatabases(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	files, err := dedup.Collect(cfg.OutputDir, databases)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No result files found under %s for %s\n", cfg.OutputDir, strings.Join(databaseNames(databases), ", "))
		return nil
	}
	logger.Info().Int("files", len(files)).Strs("databases", databaseNames(databases)).Msg("dedup started")

	articles, stats, warnings := dedup.Load(files)
	for _, w := range warnings {
		logger.Warn().Err(w.Err).Str("file", w.Path).Msg("result file skipped")
	}

	res := dedup.Deduplicate(articles)
	stats.Merge(res.Stats)
	recordDiscards(res.Discards)
	dedup.LogDiscards(logger, res.Discards)

	now := time.Now()
	totals := stats.Totals()
	doc := export.Document{
		Metadata: export.Metadata{
			Databases: databaseNames(stats.Databases()),
			QueryType: export.QueryTypeDedup,
			Statistics: &export.Statistics{
				FilesProcessed:    totals.FilesFound,
				ArticlesLoaded:    totals.ArticlesLoaded,
				DuplicatesRemoved: totals.DuplicatesFound,
				UniqueArticles:    totals.Unique,
			},
		},
		Articles: res.Articles,
	}

	dir := filepath.Join(cfg.OutputDir, dedupDir)
	writer := export.Writer{Dir: dir, WithSource: true, CSL: csl, Now: func() time.Time { return now }}
	saved, err := writer.Save(dedupName(databases, all), doc)
	if err != nil {
		return err
	}

	reportPath := filepath.Join(dir, "dedup_report_"+now.Format(export.FileTimestamp)+".yaml")
	if err := dedup.WriteReport(reportPath, dedup.NewReport(now, stats, res.Discards, warnings)); err != nil {
		return err
	}
	logger.Info().
		Int("loaded", totals.ArticlesLoaded).
		Int("duplicates", totals.DuplicatesFound).
		Int("unique", totals.Unique).
		Msg("dedup finished")

	fmt.Fprintln(out)
	printStats(out, stats)
	fmt.Fprintln(out)
	printFiles(out, saved)
	fmt.Fprintf(out, "  → %s\n", reportPath)

	if list || format == formatJSON {
		fmt.Fprintln(out)
		return render(out, doc, format)
	}
	return nil
}

// parseDatabases maps CLI arguments to databases; none or "all" selects
// every supported database.
func parseDatabases(args []string) ([]types.SourceDatabase, bool, error) {
	if len(args) == 0 || (len(args) == 1 && strings.EqualFold(args[0], "all")) {
		return types.AllDatabases(), true, nil
	}
	seen := make(map[types.SourceDatabase]bool)
	var dbs []types.SourceDatabase
	for _, arg := range args {
		db, err := types.ParseSourceDatabase(arg)
		if err != nil {
			return nil, false, err
		}
		if !seen[db] {
			seen[db] = true
			dbs = append(dbs, db)
		}
	}
	return dbs, false, nil
}

// dedupName names a deduplicated result set: dedup_all, or dedup_ followed
// by the databases joined with '-'.
func dedupName(databases []types.SourceDatabase, all bool) string {
	if all {
		return "dedup_all"
	}
	return "dedup_" + strings.Join(databaseNames(databases), "-")
}

func databaseNames(databases []types.SourceDatabase) []string {
	names := make([]string, len(databases))
	for i, db := range databases {
		names[i] = string(db)
	}
	return names
}

func recordDiscards(discards []dedup.Discard) {
	for _, d := range discards {
		counters.RecordDuplicate(string(d.Article.SourceDatabase), string(d.Reason))
	}
}
