// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited, retrying HTTP client shared by
// the source adapters.
package httputil

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const errorBodyLimit = 512

// StatusError reports a non-2xx response that survived all retries.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Source, e.StatusCode, e.Body)
}

// Observer receives one callback per HTTP exchange. *metrics.Metrics
// satisfies it.
type Observer interface {
	ObserveRequest(source string, status int, elapsed time.Duration)
	ObserveRateLimited(source string)
}

// Config configures a Client for one source.
type Config struct {
	// Source names the API in errors, logs and metrics.
	Source string

	Timeout    time.Duration
	UserAgent  string
	MaxRetries int

	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver reports every exchange to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger logs retries through log.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client wraps http.Client with a token-bucket limiter and retries on HTTP
// 429 and 5xx. It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	observer Observer
	log      zerolog.Logger
}

// New creates a Client. Zero values in cfg fall back to a 60 s timeout and
// three retries.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the configured source name.
func (c *Client) Source() string { return c.cfg.Source }

// Do executes req, waiting on the limiter before every attempt. Responses
// with HTTP 429 or 5xx are drained and retried with exponential backoff,
// honoring Retry-After. Transport errors are retried the same way unless the
// context is done. After exhausting retries the last response is returned
// as-is so the caller can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limiter: %w", c.cfg.Source, err)
		}

		start := time.Now()
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil || attempt >= c.cfg.MaxRetries {
				return nil, fmt.Errorf("%s: %w", c.cfg.Source, err)
			}
			wait := backoff(attempt, nil)
			c.log.Debug().Err(err).Str("source", c.cfg.Source).Dur("backoff", wait).
				Int("attempt", attempt+1).Msg("request failed, retrying")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		c.observe(resp.StatusCode, time.Since(start))
		if !retryable(resp.StatusCode) || attempt >= c.cfg.MaxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.log.Debug().Str("source", c.cfg.Source).Int("status", resp.StatusCode).
			Dur("backoff", wait).Int("attempt", attempt+1).Int("max_retries", c.cfg.MaxRetries).
			Msg("retrying request")
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) observe(status int, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(c.cfg.Source, status, elapsed)
	if status == http.StatusTooManyRequests {
		c.observer.ObserveRateLimited(c.cfg.Source)
	}
}

// Get issues a GET for url and returns the body of a 2xx response. Any other
// final status yields a *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", c.cfg.Source, err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{Source: c.cfg.Source, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", c.cfg.Source, err)
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decoding response: %w", c.cfg.Source, err)
	}
	return nil
}

// GetXML fetches url and decodes the XML body into v.
func (c *Client) GetXML(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decoding response: %w", c.cfg.Source, err)
	}
	return nil
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
