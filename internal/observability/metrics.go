package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for ingestion, the analysis
// pipeline, the run store and the HTTP API.
type Collector struct {
	gatherer prometheus.Gatherer

	RecordsIngested *prometheus.CounterVec
	Samples         *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	RunsCompleted   prometheus.Counter
	StoredRuns      prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// NewCollector registers the analysis metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "records_ingested_total",
		Help: "Total number of signal records ingested, labeled by source.",
	}, []string{"source"})
	ingested, err := registerCounterVec(reg, ingested, "records_ingested_total")
	if err != nil {
		return nil, err
	}

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_samples_total",
		Help: "Total number of propagation samples offered to the grid, labeled by result.",
	}, []string{"result"})
	samples, err = registerCounterVec(reg, samples, "analysis_samples_total")
	if err != nil {
		return nil, err
	}

	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_stage_duration_seconds",
		Help:    "Analysis pipeline stage latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"stage"})
	stages, err = registerHistogramVec(reg, stages, "analysis_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_runs_total",
		Help: "Cumulative number of completed analysis runs.",
	}), "analysis_runs_total")
	if err != nil {
		return nil, err
	}

	stored, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "store_runs",
		Help: "Current number of runs held by the run store.",
	}), "store_runs")
	if err != nil {
		return nil, err
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method and status code.",
	}, []string{"route", "method", "status"})
	httpRequests, err = registerCounterVec(reg, httpRequests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	httpDurations, err = registerHistogramVec(reg, httpDurations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		RecordsIngested: ingested,
		Samples:         samples,
		StageDuration:   stages,
		RunsCompleted:   runs,
		StoredRuns:      stored,
		HTTPRequests:    httpRequests,
		HTTPDuration:    httpDurations,
	}, nil
}

// AddIngested counts records ingested from a source ("csv", "annotated",
// "wsprlive").
func (c *Collector) AddIngested(source string, n int) {
	if c == nil || c.RecordsIngested == nil || n <= 0 {
		return
	}
	c.RecordsIngested.WithLabelValues(source).Add(float64(n))
}

// AddSamples counts grid sample outcomes ("accepted", "rejected").
func (c *Collector) AddSamples(result string, n int) {
	if c == nil || c.Samples == nil || n <= 0 {
		return
	}
	c.Samples.WithLabelValues(result).Add(float64(n))
}

// ObserveStage records one pipeline stage duration.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDuration == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncRuns counts a completed analysis run.
func (c *Collector) IncRuns() {
	if c == nil || c.RunsCompleted == nil {
		return
	}
	c.RunsCompleted.Inc()
}

// SetStoredRuns updates the run store depth gauge.
func (c *Collector) SetStoredRuns(count int) {
	if c == nil || c.StoredRuns == nil {
		return
	}
	c.StoredRuns.Set(float64(count))
}

// ObserveHTTP records one handled HTTP request.
func (c *Collector) ObserveHTTP(route, method, status string, d time.Duration) {
	if c == nil {
		return
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(route, method, status).Inc()
	}
	if c.HTTPDuration != nil {
		c.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
