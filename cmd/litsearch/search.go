package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsearch/internal/dedup"
	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/internal/httputil"
	"github.com/pdiddy/litsearch/internal/merge"
	"github.com/pdiddy/litsearch/internal/query"
	"github.com/pdiddy/litsearch/internal/sources"
	"github.com/pdiddy/litsearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query-file>",
	Short: "Run a query file against the database it names",
	Long: `Search reads queries/<database>.txt and runs it against that database.
The file name selects the source: pubmed.txt, europepmc.txt or openalex.txt.

On sources whose query language cannot express AND (OpenAlex), a query of
the form

  "term a" OR "term b"
  AND
  "term c" OR "term d"

is split: each side is searched separately, saved under
output/<database>/groups/, and the two result sets are merged client-side,
keeping only articles present in both that mention a term from each side.
--split-and forces this workaround on any source.

With --all the query runs against every enabled source concurrently and the
pooled results are deduplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum articles per search (0 = search.max_results)")
	searchCmd.Flags().String("years", "", "publication year range: 2015-2020, 2015-, -2020 or 2019")
	searchCmd.Flags().Bool("split-and", false, "force the client-side AND workaround")
	searchCmd.Flags().Bool("all", false, "search every enabled source and deduplicate the pool")
	searchCmd.Flags().String("format", formatTable, "terminal output: table or json")
	searchCmd.Flags().Bool("csl", false, "also export CSL-YAML for reference managers")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	limit, _ := flags.GetInt("limit")
	yearsText, _ := flags.GetString("years")
	splitAnd, _ := flags.GetBool("split-and")
	all, _ := flags.GetBool("all")
	format, _ := flags.GetString("format")
	csl, _ := flags.GetBool("csl")

	if err := checkFormat(format); err != nil {
		return err
	}
	years, err := sources.ParseYearRange(yearsText)
	if err != nil {
		return err
	}
	qf, err := query.ReadFile(cfg.QueriesDir, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	opts := sources.Options{Limit: limit, Years: years}

	fmt.Fprintf(out, "Database: %s\n", qf.Database.DisplayName())
	fmt.Fprintf(out, "Query: %s\n", truncate(strings.Join(strings.Fields(qf.Text), " "), 80))
	logger.Info().Str("source", string(qf.Database)).Str("file", qf.Path).Str("years", years.String()).Msg("search started")

	if all {
		return searchAll(ctx, out, qf, opts, format, csl)
	}

	adapter, err := newAdapter(qf.Database)
	if err != nil {
		return err
	}
	writer := export.Writer{Dir: filepath.Join(cfg.OutputDir, string(qf.Database)), CSL: csl}

	var doc export.Document
	if splitAnd || (!sources.NativeAnd(qf.Database) && query.HasAndLogic(qf.Text)) {
		fmt.Fprintln(out, "\nAND logic detected: searching both groups and merging")
		doc, err = searchAndMerge(ctx, out, adapter, qf, opts, writer)
	} else {
		doc, err = searchOnce(ctx, out, adapter, qf, opts)
	}
	if err != nil {
		return err
	}
	if len(doc.Articles) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	files, err := writer.Save(string(qf.Database), doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n✓ %d articles saved\n", len(doc.Articles))
	printFiles(out, files)
	fmt.Fprintln(out)
	return render(out, doc, format)
}

// newAdapter builds the adapter for db with a client that reports into the
// run counters.
func newAdapter(db types.SourceDatabase) (sources.Adapter, error) {
	client := sources.NewClient(db, cfg,
		httputil.WithObserver(counters),
		httputil.WithLogger(logger.With().Str("source", string(db)).Logger()))
	return sources.New(db, cfg, client)
}

// runAdapter runs one search, records it and stamps the source.
func runAdapter(ctx context.Context, a sources.Adapter, q string, opts sources.Options) ([]types.Article, error) {
	start := time.Now()
	articles, err := a.Search(ctx, q, opts)
	db := a.Database()
	counters.RecordSearch(string(db), len(articles), err)
	if err != nil {
		logger.Error().Err(err).Str("source", string(db)).Msg("search failed")
		return nil, err
	}
	for i := range articles {
		articles[i].SourceDatabase = db
	}
	logger.Info().Str("source", string(db)).Int("articles", len(articles)).Dur("elapsed", time.Since(start)).Msg("search finished")
	return articles, nil
}

func searchOnce(ctx context.Context, out io.Writer, a sources.Adapter, qf *query.File, opts sources.Options) (export.Document, error) {
	fmt.Fprintln(out, "\nSearching...")
	articles, err := runAdapter(ctx, a, qf.Text, opts)
	if err != nil {
		return export.Document{}, err
	}
	return export.Document{
		Metadata: export.Metadata{
			Database:  string(qf.Database),
			Query:     qf.Text,
			QueryType: export.QueryTypeSearch,
		},
		Articles: articles,
	}, nil
}

// splitGroups parses both sides of an AND query; each must hold terms.
func splitGroups(text string) (query.Group, query.Group, error) {
	groups, err := query.Split(text)
	if err != nil {
		return query.Group{}, query.Group{}, err
	}
	a, b := query.ParseGroup(groups.A), query.ParseGroup(groups.B)
	if len(a.Terms) == 0 || len(b.Terms) == 0 {
		return query.Group{}, query.Group{}, fmt.Errorf("%w: both sides of AND need at least one term", query.ErrMalformedQuery)
	}
	return a, b, nil
}

// searchAndMerge runs the two-step AND workaround. Each group's results are
// saved under <writer.Dir>/groups and merged from those files.
func searchAndMerge(ctx context.Context, out io.Writer, a sources.Adapter, qf *query.File, opts sources.Options, writer export.Writer) (export.Document, error) {
	groupA, groupB, err := splitGroups(qf.Text)
	if err != nil {
		return export.Document{}, err
	}
	fmt.Fprintf(out, "├─ Group A: %s (%d terms)\n", groupA.Label, len(groupA.Terms))
	fmt.Fprintf(out, "└─ Group B: %s (%d terms)\n", groupB.Label, len(groupB.Terms))

	groupWriter := export.Writer{Dir: filepath.Join(writer.Dir, dedup.GroupsDir)}
	saved := make([]export.Files, 2)
	for i, g := range []struct {
		group  query.Group
		suffix string
	}{{groupA, "_A"}, {groupB, "_B"}} {
		fmt.Fprintf(out, "\n[%d/3] Searching group %s (%s)...\n", i+1, g.suffix[1:], g.group.Label)
		articles, err := runAdapter(ctx, a, g.group.Expression, opts)
		if err != nil {
			return export.Document{}, fmt.Errorf("group %s: %w", g.suffix[1:], err)
		}
		if len(articles) == 0 {
			fmt.Fprintf(out, "No results for group %s\n", g.suffix[1:])
			return export.Document{}, nil
		}
		fmt.Fprintf(out, "✓ %d articles found\n", len(articles))

		saved[i], err = groupWriter.Save(g.group.Label+g.suffix, export.Document{
			Metadata: export.Metadata{
				Database:  string(qf.Database),
				Query:     g.group.Expression,
				QueryType: export.QueryTypeGroup,
			},
			Articles: articles,
		})
		if err != nil {
			return export.Document{}, err
		}
	}

	fmt.Fprintln(out, "\n[3/3] Merging with AND logic...")
	res, err := merge.MergeFiles(saved[0].JSON, saved[1].JSON, groupA.Terms, groupB.Terms)
	if err != nil {
		return export.Document{}, err
	}
	counters.RecordMerge(res.Matched, res.Validated, len(res.Articles))
	logger.Info().
		Int("matched", res.Matched).
		Int("validated", res.Validated).
		Int("duplicates", res.DuplicatesRemoved).
		Int("unique", len(res.Articles)).
		Msg("merge finished")
	fmt.Fprintf(out, "├─ %d in both groups\n├─ %d mention terms from both\n└─ %d unique\n",
		res.Matched, res.Validated, len(res.Articles))

	return export.Document{
		Metadata: export.Metadata{
			Database:  string(qf.Database),
			Query:     qf.Text,
			QueryType: export.QueryTypeMerge,
		},
		Articles: res.Articles,
	}, nil
}

// splitAndAdapter runs the AND workaround in memory so it can take part in
// a concurrent multi-source search.
type splitAndAdapter struct {
	sources.Adapter
}

func (s splitAndAdapter) Search(ctx context.Context, q string, opts sources.Options) ([]types.Article, error) {
	groupA, groupB, err := splitGroups(q)
	if err != nil {
		return nil, err
	}
	resultsA, err := s.Adapter.Search(ctx, groupA.Expression, opts)
	if err != nil {
		return nil, fmt.Errorf("group A: %w", err)
	}
	if len(resultsA) == 0 {
		return nil, nil
	}
	resultsB, err := s.Adapter.Search(ctx, groupB.Expression, opts)
	if err != nil {
		return nil, fmt.Errorf("group B: %w", err)
	}
	res := merge.Merge(resultsA, resultsB, groupA.Terms, groupB.Terms)
	counters.RecordMerge(res.Matched, res.Validated, len(res.Articles))
	return res.Articles, nil
}

// searchAll runs the query against every enabled source, saves each
// source's results and deduplicates the pool.
func searchAll(ctx context.Context, out io.Writer, qf *query.File, opts sources.Options, format string, csl bool) error {
	var adapters []sources.Adapter
	for _, db := range types.AllDatabases() {
		a, err := newAdapter(db)
		if errors.Is(err, sources.ErrDisabled) {
			logger.Debug().Str("source", string(db)).Msg("source disabled, skipping")
			continue
		}
		if err != nil {
			return err
		}
		if !sources.NativeAnd(db) && query.HasAndLogic(qf.Text) {
			a = splitAndAdapter{Adapter: a}
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return errors.New("no sources enabled")
	}

	fmt.Fprintf(out, "\nSearching %d sources...\n", len(adapters))
	outcomes, err := sources.SearchAll(ctx, adapters, qf.Text, opts)
	if err != nil {
		return err
	}

	var pooled []types.Article
	var searched []types.SourceDatabase
	for _, o := range outcomes {
		counters.RecordSearch(string(o.Database), len(o.Articles), o.Err)
		log := logger.With().Str("source", string(o.Database)).Logger()
		if o.Err != nil {
			log.Error().Err(o.Err).Msg("search failed")
			fmt.Fprintf(out, "✗ %s: %v\n", o.Database.DisplayName(), o.Err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d articles (%s)\n", o.Database.DisplayName(), len(o.Articles), o.Elapsed.Round(time.Millisecond))
		if len(o.Articles) == 0 {
			continue
		}
		searched = append(searched, o.Database)
		if err := saveSourceResults(log, qf, o, csl); err != nil {
			return err
		}
		pooled = append(pooled, o.Articles...)
	}
	if len(pooled) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	res := dedup.Deduplicate(pooled)
	recordDiscards(res.Discards)
	dedup.LogDiscards(logger, res.Discards)

	doc := export.Document{
		Metadata: export.Metadata{
			Databases: databaseNames(searched),
			Query:     qf.Text,
			QueryType: export.QueryTypeDedup,
			Statistics: &export.Statistics{
				ArticlesLoaded:    len(pooled),
				DuplicatesRemoved: len(res.Discards),
				UniqueArticles:    len(res.Articles),
			},
		},
		Articles: res.Articles,
	}
	writer := export.Writer{Dir: filepath.Join(cfg.OutputDir, dedupDir), WithSource: true, CSL: csl}
	files, err := writer.Save(dedupName(searched, true), doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n✓ %d unique articles (%d duplicates removed)\n", len(res.Articles), len(res.Discards))
	printFiles(out, files)
	fmt.Fprintln(out)
	return render(out, doc, format)
}

func saveSourceResults(log zerolog.Logger, qf *query.File, o sources.Outcome, csl bool) error {
	writer := export.Writer{Dir: filepath.Join(cfg.OutputDir, string(o.Database)), CSL: csl}
	files, err := writer.Save(string(o.Database), export.Document{
		Metadata: export.Metadata{
			Database:  string(o.Database),
			Query:     qf.Text,
			QueryType: export.QueryTypeSearch,
		},
		Articles: o.Articles,
	})
	if err != nil {
		return err
	}
	log.Debug().Str("file", files.JSON).Msg("results saved")
	return nil
}
