// Package metrics instruments the forecast pipeline with Prometheus collectors.
// A run is a batch job, so metrics are written to a node-exporter textfile
// instead of being scraped.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used as the "stage" label.
const (
	StageGenerate  = "generate"
	StageAggregate = "aggregate"
	StageRank      = "rank"
	StageReindex   = "reindex"
	StageForecast  = "forecast"
	StageMerge     = "merge"
)

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration    *prometheus.HistogramVec
	eventsGenerated  prometheus.Counter
	categoriesRanked prometheus.Gauge
	forecastFailures prometheus.Counter
	lastRunTimestamp prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	return &Metrics{
		registry: registry,

		stageDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attackcast_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),

		eventsGenerated: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "attackcast_events_generated_total",
				Help: "Total number of synthetic events generated",
			},
		),

		categoriesRanked: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "attackcast_categories_ranked",
				Help: "Number of categories kept by the last ranking",
			},
		),

		forecastFailures: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "attackcast_forecast_failures_total",
				Help: "Total number of leading-category model fits that failed",
			},
		),

		lastRunTimestamp: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "attackcast_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		),
	}
}

// ObserveStage records the duration of a stage that started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// AddEvents counts generated events.
func (m *Metrics) AddEvents(n int) {
	if m == nil {
		return
	}
	m.eventsGenerated.Add(float64(n))
}

// SetCategoriesRanked records the size of the last ranking.
func (m *Metrics) SetCategoriesRanked(n int) {
	if m == nil {
		return
	}
	m.categoriesRanked.Set(float64(n))
}

// IncForecastFailures counts a failed model fit.
func (m *Metrics) IncForecastFailures() {
	if m == nil {
		return
	}
	m.forecastFailures.Inc()
}

// MarkRun stamps the completion time of a run.
func (m *Metrics) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRunTimestamp.Set(float64(t.Unix()))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
