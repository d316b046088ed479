package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FetchCollector exposes Prometheus metrics for the spot database client.
type FetchCollector struct {
	gatherer prometheus.Gatherer

	RequestDuration prometheus.Histogram
	RequestsTotal   prometheus.Counter
	ErrorsTotal     prometheus.Counter
	RowsTotal       prometheus.Counter
}

// NewFetchCollector registers fetch metrics against the provided registerer.
func NewFetchCollector(reg prometheus.Registerer) (*FetchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_request_duration_seconds",
		Help:    "Duration of spot database queries, including body download.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})
	duration, err := registerHistogram(reg, duration, "fetch_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Cumulative number of spot database queries issued.",
	})
	requests, err = registerCounter(reg, requests, "fetch_requests_total")
	if err != nil {
		return nil, err
	}

	errors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fetch_errors_total",
		Help: "Cumulative number of failed spot database queries.",
	})
	errors, err = registerCounter(reg, errors, "fetch_errors_total")
	if err != nil {
		return nil, err
	}

	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fetch_rows_total",
		Help: "Cumulative number of spot rows returned by the database.",
	})
	rows, err = registerCounter(reg, rows, "fetch_rows_total")
	if err != nil {
		return nil, err
	}

	return &FetchCollector{
		gatherer:        gatherer,
		RequestDuration: duration,
		RequestsTotal:   requests,
		ErrorsTotal:     errors,
		RowsTotal:       rows,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *FetchCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveRequest records one issued query and its duration.
func (c *FetchCollector) ObserveRequest(d time.Duration) {
	if c == nil {
		return
	}
	if c.RequestsTotal != nil {
		c.RequestsTotal.Inc()
	}
	if c.RequestDuration != nil {
		c.RequestDuration.Observe(d.Seconds())
	}
}

// IncErrors counts a failed query.
func (c *FetchCollector) IncErrors() {
	if c == nil || c.ErrorsTotal == nil {
		return
	}
	c.ErrorsTotal.Inc()
}

// AddRows counts rows returned by a query.
func (c *FetchCollector) AddRows(n int) {
	if c == nil || c.RowsTotal == nil || n <= 0 {
		return
	}
	c.RowsTotal.Add(float64(n))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
