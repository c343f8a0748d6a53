// Package metrics provides Prometheus metrics for scrape and load runs.
//
// Both commands are short-lived, so metrics are not served over HTTP; they are
// written to a node_exporter textfile when a run ends. All methods are safe
// to call on a nil *Manager, which records nothing.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Week outcomes recorded by the scraper.
const (
	WeekScraped     = "scraped"
	WeekResumed     = "resumed"
	WeekUnpublished = "unpublished"
)

// Manager owns the metrics of one process.
type Manager struct {
	namespace   string
	constLabels prometheus.Labels
	registry    *prometheus.Registry

	// Scraper
	weeks            *prometheus.CounterVec
	pagesFetched     prometheus.Counter
	pageErrors       prometheus.Counter
	scoreParseErrors prometheus.Counter
	signinUnverified prometheus.Counter
	weekEntries      *prometheus.GaugeVec

	// Loader
	selectionsReshaped prometheus.Gauge
	selectionsKept     prometheus.Gauge
	entriesResolution  *prometheus.GaugeVec
	loadDuration       prometheus.Histogram
}

// NewManager creates a Manager on a fresh registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "blackout",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.weeks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "weeks_total",
		Help:        "Weeks visited by the scraper, by outcome (scraped, resumed, unpublished)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "pages_fetched_total",
		Help:        "Result pages fetched",
		ConstLabels: m.constLabels,
	})

	m.pageErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "page_errors_total",
		Help:        "Result pages that failed and ended their week early",
		ConstLabels: m.constLabels,
	})

	m.scoreParseErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "score_parse_errors_total",
		Help:        "Result rows skipped because the score cell was not numeric",
		ConstLabels: m.constLabels,
	})

	m.signinUnverified = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "signin_unverified_total",
		Help:        "Sign-ins where the post-login marker never appeared",
		ConstLabels: m.constLabels,
	})

	m.weekEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "scraper",
		Name:        "week_entries",
		Help:        "Entries counted for a week",
		ConstLabels: m.constLabels,
	}, []string{"week"})

	m.selectionsReshaped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "loader",
		Name:        "selections_reshaped",
		Help:        "Selections produced from the wide sheet before filtering",
		ConstLabels: m.constLabels,
	})

	m.selectionsKept = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "loader",
		Name:        "selections_kept",
		Help:        "Selections left after filtering",
		ConstLabels: m.constLabels,
	})

	m.entriesResolution = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "loader",
		Name:        "entries_resolution",
		Help:        "Selections by how their weekly entries total was resolved",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.loadDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "loader",
		Name:        "load_duration_seconds",
		Help:        "Wall time of a full load",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	})
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordWeek counts a week visit with one of the Week* outcomes.
func (m *Manager) RecordWeek(outcome string) {
	if m == nil {
		return
	}
	m.weeks.WithLabelValues(outcome).Inc()
}

// RecordWeekEntries stores the entries counted for a week.
func (m *Manager) RecordWeekEntries(week, entries int) {
	if m == nil {
		return
	}
	m.weekEntries.WithLabelValues(strconv.Itoa(week)).Set(float64(entries))
}

// RecordPage counts a fetched result page; failed pages are counted separately.
func (m *Manager) RecordPage(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.pageErrors.Inc()
		return
	}
	m.pagesFetched.Inc()
}

// RecordScoreParseError counts a skipped result row.
func (m *Manager) RecordScoreParseError() {
	if m == nil {
		return
	}
	m.scoreParseErrors.Inc()
}

// RecordSigninUnverified counts an optimistic sign-in.
func (m *Manager) RecordSigninUnverified() {
	if m == nil {
		return
	}
	m.signinUnverified.Inc()
}

// RecordLoad stores the outcome of a load.
func (m *Manager) RecordLoad(reshaped, kept, known, estimated, undefined int, took time.Duration) {
	if m == nil {
		return
	}
	m.selectionsReshaped.Set(float64(reshaped))
	m.selectionsKept.Set(float64(kept))
	m.entriesResolution.WithLabelValues("known").Set(float64(known))
	m.entriesResolution.WithLabelValues("estimated").Set(float64(estimated))
	m.entriesResolution.WithLabelValues("undefined").Set(float64(undefined))
	m.loadDuration.Observe(took.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector. An empty path is a no-op.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile %q: %w", path, err)
	}
	return nil
}
