// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litsearch CLI. It searches
// PubMed, Europe PMC and OpenAlex from query files, runs the client-side AND
// workaround where a source cannot express AND, and deduplicates results
// pooled across sources.
package main

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsearch/internal/config"
	"github.com/pdiddy/litsearch/internal/logging"
	"github.com/pdiddy/litsearch/internal/metrics"
	"github.com/pdiddy/litsearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Run-wide state prepared by the root command before any subcommand runs.
var (
	cfg       types.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
	counters  = metrics.New()
)

// rootCmd is the base command for the litsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "litsearch",
	Short: "Search literature databases and reconcile their results",
	Long: `litsearch queries PubMed, Europe PMC and OpenAlex with queries kept in
plain-text files (queries/pubmed.txt, queries/openalex.txt, ...), exports the
results as CSV and JSON, and reconciles them.

Sources whose query language cannot express AND get a two-step workaround:
both sides of the AND are searched separately and merged client-side. The
dedup command pools saved results across sources and keeps one record per
article, preferring PubMed over Europe PMC over OpenAlex.`,
	SilenceUsage: true,
}

func init() {
	// Hooks are assigned here rather than in the literal because setup and
	// teardown reference rootCmd, which would form an initialization cycle.
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return teardown(cmd)
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./litsearch.yaml or ~/.config/litsearch/litsearch.yaml)")
	pf.String("env-file", ".env", "dotenv file with NCBI_API_KEY, NCBI_EMAIL, OPENALEX_EMAIL")
	pf.String("secrets-dir", config.DefaultSecretsDir, "directory of credential files")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("metrics-file", "", "write run counters in Prometheus text format to this file")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	pf := rootCmd.PersistentFlags()

	envFile, _ := pf.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	secretsDir, _ := pf.GetString("secrets-dir")
	secrets, err := config.LoadSecrets(secretsDir)
	if err != nil {
		return err
	}

	cfgFile, _ := pf.GetString("config")
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("log.level", pf.Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("log.format", pf.Lookup("log-format")); err != nil {
		return err
	}

	c, err := config.Load(v, secrets)
	if err != nil {
		return err
	}
	cfg = c

	log, closer, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.LogsDir,
	}, time.Now())
	if err != nil {
		return err
	}
	logger, logCloser = log, closer

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}
	if len(secrets) > 0 {
		keys := make([]string, 0, len(secrets))
		for k := range secrets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Debug().Strs("keys", keys).Msg("loaded secrets")
	}
	return nil
}

// teardown writes the metrics file when requested and closes the log file.
func teardown(cmd *cobra.Command) error {
	if path, _ := rootCmd.PersistentFlags().GetString("metrics-file"); path != "" {
		if err := counters.WriteFile(path); err != nil {
			logger.Error().Err(err).Msg("metrics not written")
		} else {
			logger.Debug().Str("file", path).Msg("metrics written")
		}
	}
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
