package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsearch/internal/export"
	"github.com/pdiddy/litsearch/internal/merge"
	"github.com/pdiddy/litsearch/internal/query"
)

// mergedDir receives merges whose database is not known.
const mergedDir = "merged"

var mergeCmd = &cobra.Command{
	Use:   "merge <group-a.json> <group-b.json>",
	Short: "Merge two saved result files with AND logic",
	Long: `Merge keeps the articles of the first file whose authors and title also
appear in the second and whose title or abstract mentions a term from each
group. The validation terms come either from --query, a query file split at
its AND, or from --terms-a and --terms-b written in query syntax:

  litsearch merge a.json b.json --terms-a '"sleep" OR "insomnia"' --terms-b memory`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("query", "", "query file whose AND groups supply the validation terms")
	mergeCmd.Flags().String("terms-a", "", "validation terms of group A, separated by OR")
	mergeCmd.Flags().String("terms-b", "", "validation terms of group B, separated by OR")
	mergeCmd.Flags().String("format", formatTable, "terminal output: table or json")
	mergeCmd.Flags().Bool("csl", false, "also export CSL-YAML for reference managers")
	mergeCmd.MarkFlagsMutuallyExclusive("query", "terms-a")
	mergeCmd.MarkFlagsMutuallyExclusive("query", "terms-b")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	queryFile, _ := flags.GetString("query")
	termsAText, _ := flags.GetString("terms-a")
	termsBText, _ := flags.GetString("terms-b")
	format, _ := flags.GetString("format")
	csl, _ := flags.GetBool("csl")
	if err := checkFormat(format); err != nil {
		return err
	}

	name := mergedDir
	var queryText string
	var termsA, termsB []string
	switch {
	case queryFile != "":
		qf, err := query.ReadFile(cfg.QueriesDir, queryFile)
		if err != nil {
			return err
		}
		groupA, groupB, err := splitGroups(qf.Text)
		if err != nil {
			return err
		}
		termsA, termsB = groupA.Terms, groupB.Terms
		name, queryText = string(qf.Database), qf.Text
	case termsAText != "" && termsBText != "":
		termsA, termsB = query.ValidationTerms(termsAText), query.ValidationTerms(termsBText)
		queryText = termsAText + "\nAND\n" + termsBText
	default:
		return errors.New("merge needs --query or both --terms-a and --terms-b")
	}

	out := cmd.OutOrStdout()
	res, err := merge.MergeFiles(args[0], args[1], termsA, termsB)
	if err != nil {
		return err
	}
	counters.RecordMerge(res.Matched, res.Validated, len(res.Articles))
	logger.Info().
		Str("a", args[0]).
		Str("b", args[1]).
		Int("matched", res.Matched).
		Int("validated", res.Validated).
		Int("duplicates", res.DuplicatesRemoved).
		Int("unique", len(res.Articles)).
		Msg("merge finished")

	fmt.Fprintf(out, "├─ %d in both groups\n├─ %d mention terms from both\n└─ %d unique\n",
		res.Matched, res.Validated, len(res.Articles))
	if len(res.Articles) == 0 {
		fmt.Fprintln(out, "No articles satisfy both groups.")
		return nil
	}

	doc := export.Document{
		Metadata: export.Metadata{
			Database:  name,
			Query:     queryText,
			QueryType: export.QueryTypeMerge,
		},
		Articles: res.Articles,
	}
	writer := export.Writer{Dir: filepath.Join(cfg.OutputDir, name), CSL: csl}
	files, err := writer.Save(name, doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printFiles(out, files)
	fmt.Fprintln(out)
	return render(out, doc, format)
}
