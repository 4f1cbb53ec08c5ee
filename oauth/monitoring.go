package oauth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records OAuth flow metrics
type MetricsCollector interface {
	RecordAuthRequest(provider string, success bool, duration time.Duration)
	RecordTokenExchange(provider string, success bool, duration time.Duration)
	RecordResourceOwnerRequest(provider string, success bool, duration time.Duration)
	RecordError(provider, operation, errorType string)
}

type noopMetrics struct{}

func (noopMetrics) RecordAuthRequest(string, bool, time.Duration)          {}
func (noopMetrics) RecordTokenExchange(string, bool, time.Duration)        {}
func (noopMetrics) RecordResourceOwnerRequest(string, bool, time.Duration) {}
func (noopMetrics) RecordError(string, string, string)                     {}

// Operation label values
const (
	OperationAuthURL       = "auth_url"
	OperationExchange      = "exchange"
	OperationResourceOwner = "resource_owner"
)

// PrometheusCollector implements MetricsCollector with Prometheus vectors
type PrometheusCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg (prometheus.DefaultRegisterer when nil).
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_requests_total",
				Help: "Total number of OAuth operations by outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth_request_duration_seconds",
				Help:    "Duration of OAuth operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"provider", "operation"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_errors_total",
				Help: "Total number of OAuth errors by type",
			},
			[]string{"provider", "operation", "type"},
		),
	}

	for _, col := range []prometheus.Collector{c.requests, c.duration, c.errors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PrometheusCollector) RecordAuthRequest(provider string, success bool, duration time.Duration) {
	c.record(provider, OperationAuthURL, success, duration)
}

func (c *PrometheusCollector) RecordTokenExchange(provider string, success bool, duration time.Duration) {
	c.record(provider, OperationExchange, success, duration)
}

func (c *PrometheusCollector) RecordResourceOwnerRequest(provider string, success bool, duration time.Duration) {
	c.record(provider, OperationResourceOwner, success, duration)
}

func (c *PrometheusCollector) RecordError(provider, operation, errorType string) {
	c.errors.WithLabelValues(provider, operation, errorType).Inc()
}

func (c *PrometheusCollector) record(provider, operation string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.requests.WithLabelValues(provider, operation, outcome).Inc()
	c.duration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}
