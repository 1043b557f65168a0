// Package metrics exposes Prometheus collectors for the scrape and analysis pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector BreadLens records into.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	recordsTotal        *prometheus.CounterVec
	recordsDropped      *prometheus.CounterVec
	productGroups       prometheus.Gauge
	comparableGroups    prometheus.Gauge
	analysisDuration    prometheus.Histogram
	scrapeRecords       *prometheus.CounterVec
	scrapeFailures      *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breadlens_records_total",
			Help: "Records seen per pipeline stage",
		}, []string{"stage"}),
		recordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breadlens_records_dropped_total",
			Help: "Records dropped by the normalizer, by reason",
		}, []string{"reason"}),
		productGroups: factory.NewGauge(prometheus.GaugeOpts{
			Name: "breadlens_product_groups",
			Help: "Product groups produced by the last analysis",
		}),
		comparableGroups: factory.NewGauge(prometheus.GaugeOpts{
			Name: "breadlens_comparable_groups",
			Help: "Product groups carried by two or more platforms in the last analysis",
		}),
		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "breadlens_analysis_duration_seconds",
			Help:    "Wall time of a full analysis run",
			Buckets: prometheus.DefBuckets,
		}),
		scrapeRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breadlens_scrape_records_total",
			Help: "Raw records extracted per platform",
		}, []string{"platform"}),
		scrapeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breadlens_scrape_failures_total",
			Help: "Platform extractions that failed entirely",
		}, []string{"platform"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// ObserveStage adds n records to the given stage counter
func (m *Metrics) ObserveStage(stage string, n int) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(stage).Add(float64(n))
}

// ObserveDropped counts dropped records per reason
func (m *Metrics) ObserveDropped(counts map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range counts {
		m.recordsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveGroups records the size of the last grouping
func (m *Metrics) ObserveGroups(total, comparable int) {
	if m == nil {
		return
	}
	m.productGroups.Set(float64(total))
	m.comparableGroups.Set(float64(comparable))
}

// ObserveAnalysis records how long an analysis took
func (m *Metrics) ObserveAnalysis(d time.Duration) {
	if m == nil {
		return
	}
	m.analysisDuration.Observe(d.Seconds())
}

// ObserveScrape records one platform's extraction outcome
func (m *Metrics) ObserveScrape(platform string, records int, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.scrapeFailures.WithLabelValues(platform).Inc()
		return
	}
	m.scrapeRecords.WithLabelValues(platform).Add(float64(records))
}

// RequestStarted marks an HTTP request in flight and returns a func that
// records its outcome
func (m *Metrics) RequestStarted() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	start := time.Now()
	m.httpInFlight.Inc()
	return func(method, route string, status int) {
		m.httpInFlight.Dec()
		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.httpRequestsTotal.With(labels).Inc()
		m.httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
