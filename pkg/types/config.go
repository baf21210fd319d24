package types

import "time"

// HTTPConfig holds shared HTTP settings used by the source adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent" validate:"required"`

	// MaxRetries is the number of retries on 429 and 5xx responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// SourceConfig holds per-database adapter settings.
type SourceConfig struct {
	// Enabled controls whether the source takes part in multi-source searches.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gt=0"`

	// Burst is the token bucket size.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst" validate:"gt=0"`

	// APIKey is an optional key for higher rate limits (PubMed).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email is sent as a contact address (PubMed "email", OpenAlex "mailto").
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`

	// FetchAbstracts makes the PubMed adapter fill abstracts with an extra efetch call.
	FetchAbstracts bool `json:"fetch_abstracts" yaml:"fetch_abstracts" mapstructure:"fetch_abstracts"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// MaxResults caps the number of articles fetched per query (default 10000).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gt=0"`

	// BatchSize is the page size requested from the sources (default 500).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0,lte=1000"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn warning error"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// Config groups all settings for a litsearch run.
type Config struct {
	QueriesDir string `json:"queries_dir" yaml:"queries_dir" mapstructure:"queries_dir" validate:"required"`
	OutputDir  string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir" validate:"required"`

	// LogsDir receives a per-run log file; empty disables file logging.
	LogsDir string `json:"logs_dir" yaml:"logs_dir" mapstructure:"logs_dir"`

	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
	HTTP   HTTPConfig   `json:"http" yaml:"http" mapstructure:"http"`
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`

	Sources map[SourceDatabase]SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources" validate:"dive"`
}

// Source returns the settings for db, or the zero value when unset.
func (c Config) Source(db SourceDatabase) SourceConfig {
	return c.Sources[db]
}
