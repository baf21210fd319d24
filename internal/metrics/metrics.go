// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts source requests and reconciliation outcomes for one
// CLI run. The counters live on a private registry and are written once, at
// exit, in the Prometheus text format so a node_exporter textfile collector
// or a CI job can pick them up.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "litsearch"

// Metrics holds the counters of one run.
type Metrics struct {
	registry *prometheus.Registry

	// SourceRequests counts HTTP requests to source APIs by source and status code.
	SourceRequests *prometheus.CounterVec

	// SourceRequestDuration observes request latency in seconds by source.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts 429 responses by source.
	SourceRateLimited *prometheus.CounterVec

	// SearchesCompleted and SearchesFailed count adapter searches by source.
	SearchesCompleted *prometheus.CounterVec
	SearchesFailed    *prometheus.CounterVec

	// ArticlesFetched counts articles returned by source.
	ArticlesFetched *prometheus.CounterVec

	// MergeArticles counts articles surviving each merge stage.
	MergeArticles *prometheus.CounterVec

	// DuplicatesRemoved counts discarded duplicates by source and reason.
	DuplicatesRemoved *prometheus.CounterVec
}

// New creates the run counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "HTTP requests to source APIs by status code",
		}, []string{"source", "code"}),
		SourceRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of HTTP requests to source APIs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		SourceRateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Rate-limited responses from source APIs",
		}, []string{"source"}),
		SearchesCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Searches that finished successfully",
		}, []string{"source"}),
		SearchesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Searches that returned an error",
		}, []string{"source"}),
		ArticlesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_fetched_total",
			Help:      "Articles returned by source searches",
		}, []string{"source"}),
		MergeArticles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_articles_total",
			Help:      "Articles surviving each AND merge stage",
		}, []string{"stage"}),
		DuplicatesRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Duplicate records discarded by source and reason",
		}, []string{"source", "reason"}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(source string, status int, elapsed time.Duration) {
	m.SourceRequests.WithLabelValues(source, strconv.Itoa(status)).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRateLimited records one 429 response.
func (m *Metrics) ObserveRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordSearch records the outcome of one adapter search.
func (m *Metrics) RecordSearch(source string, articles int, err error) {
	if err != nil {
		m.SearchesFailed.WithLabelValues(source).Inc()
		return
	}
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.ArticlesFetched.WithLabelValues(source).Add(float64(articles))
}

// RecordMerge records the stage sizes of one AND merge.
func (m *Metrics) RecordMerge(matched, validated, unique int) {
	m.MergeArticles.WithLabelValues("matched").Add(float64(matched))
	m.MergeArticles.WithLabelValues("validated").Add(float64(validated))
	m.MergeArticles.WithLabelValues("unique").Add(float64(unique))
}

// RecordDuplicate records one discarded duplicate.
func (m *Metrics) RecordDuplicate(source, reason string) {
	m.DuplicatesRemoved.WithLabelValues(source, reason).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes all counters to path in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
