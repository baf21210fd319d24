// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles a types.Config from defaults, a litsearch.yaml
// file, LITSEARCH_ environment variables, a .env file and the .secrets/
// directory, then validates it.
//
// Precedence, highest first: values set on the viper instance (bound CLI
// flags), environment, config file, .secrets/, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/litsearch/pkg/types"
)

const (
	// EnvPrefix prefixes every environment override, e.g. LITSEARCH_OUTPUT_DIR.
	EnvPrefix = "LITSEARCH"

	configName = "litsearch"
)

// Legacy environment variables of the original scripts, honored after the
// LITSEARCH_ form.
var legacyEnv = map[string][]string{
	"sources.pubmed.api_key":  {"NCBI_API_KEY", "PUBMED_API_KEY"},
	"sources.pubmed.email":    {"NCBI_EMAIL"},
	"sources.europepmc.email": {"NCBI_EMAIL"},
	"sources.openalex.email":  {"OPENALEX_EMAIL"},
}

// Secret files in .secrets/ and the keys they fill when nothing else does.
var secretKeys = map[string]string{
	"ncbi-api-key":   "sources.pubmed.api_key",
	"ncbi-email":     "sources.pubmed.email",
	"openalex-email": "sources.openalex.email",
}

// New returns a viper instance with defaults, environment bindings and, if
// one exists, the config file loaded. An explicit cfgFile must exist; the
// default search locations are optional.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envName}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers every key with its default so that environment
// overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("queries_dir", "queries")
	v.SetDefault("output_dir", "output")
	v.SetDefault("logs_dir", "logs")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("http.user_agent", "litsearch/1.0 (literature search reconciliation)")
	v.SetDefault("http.max_retries", 3)

	v.SetDefault("search.max_results", 10000)
	v.SetDefault("search.batch_size", 500)

	for _, db := range types.AllDatabases() {
		prefix := "sources." + string(db) + "."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"rate_limit", defaultRateLimit(db))
		v.SetDefault(prefix+"burst", 1)
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"email", "")
		v.SetDefault(prefix+"fetch_abstracts", false)
	}
}

// defaultRateLimit follows the published limits: NCBI allows 3 requests per
// second without an API key, Europe PMC and OpenAlex's polite pool 10.
func defaultRateLimit(db types.SourceDatabase) float64 {
	if db == types.PubMed {
		return 3
	}
	return 10
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load fills keys still empty from secrets, decodes v into a types.Config
// and validates the result.
func Load(v *viper.Viper, secrets map[string]string) (types.Config, error) {
	for name, key := range secretKeys {
		if s, ok := secrets[name]; ok && v.GetString(key) == "" {
			v.Set(key, s)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and rejects unknown source names.
func Validate(cfg types.Config) error {
	for db := range cfg.Sources {
		if _, err := types.ParseSourceDatabase(string(db)); err != nil {
			return fmt.Errorf("invalid configuration: sources: %w", err)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
