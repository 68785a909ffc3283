// Package metrics exposes Prometheus collectors for HTTP traffic and agent builds.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds every collector the service registers
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Build pipeline
	BuildRunsTotal      *prometheus.CounterVec
	BuildsInFlight      prometheus.Gauge
	StepDuration        *prometheus.HistogramVec
	ReviewPassThroughs  prometheus.Counter
	SubpagesCreated     *prometheus.CounterVec
	ContinuationsTotal  *prometheus.CounterVec

	// Providers
	ProviderCallsTotal    *prometheus.CounterVec
	ProviderCallDuration  *prometheus.HistogramVec
	CredentialRotations   *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec

	// Public page cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// Get returns the process-wide Metrics, registering it on first use
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"endpoint", "method", "status"},
	)
	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codeplay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120},
		},
		[]string{"endpoint", "method"},
	)
	m.HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codeplay",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served",
	})

	m.BuildRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "builds",
			Name:      "runs_total",
			Help:      "Agent build runs by outcome",
		},
		[]string{"outcome"},
	)
	m.BuildsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codeplay",
		Subsystem: "builds",
		Name:      "in_flight",
		Help:      "Agent build runs currently executing",
	})
	m.StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codeplay",
			Subsystem: "builds",
			Name:      "step_duration_seconds",
			Help:      "Time spent in each agent step",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 60, 120, 240},
		},
		[]string{"agent", "outcome"},
	)
	m.ReviewPassThroughs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codeplay",
		Subsystem: "builds",
		Name:      "review_pass_through_total",
		Help:      "Reviews whose output could not be parsed and were discarded",
	})
	m.SubpagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "builds",
			Name:      "subpages_created_total",
			Help:      "Materialized subpages by page kind and source",
		},
		[]string{"kind", "source"},
	)
	m.ContinuationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "builds",
			Name:      "continuations_total",
			Help:      "Chat edit requests by result code",
		},
		[]string{"code"},
	)

	m.ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "ai",
			Name:      "provider_calls_total",
			Help:      "Generation provider calls by provider and status",
		},
		[]string{"provider", "status"},
	)
	m.ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codeplay",
			Subsystem: "ai",
			Name:      "provider_call_duration_seconds",
			Help:      "Generation provider latency",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)
	m.CredentialRotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "ai",
			Name:      "credential_rotations_total",
			Help:      "Credential pool rotations by reason",
		},
		[]string{"service", "reason"},
	)
	m.FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeplay",
			Subsystem: "ai",
			Name:      "fallbacks_total",
			Help:      "Calls answered by the fallback provider, by outcome",
		},
		[]string{"outcome"},
	)

	m.CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codeplay",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Public page cache hits",
	})
	m.CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codeplay",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Public page cache misses",
	})

	return m
}

// RecordHTTPRequest records one completed request
func (m *Metrics) RecordHTTPRequest(endpoint, method string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordProviderCall records one call to a generation provider. status is the
// HTTP status, or 0 for transport errors.
func (m *Metrics) RecordProviderCall(provider string, status int, duration time.Duration) {
	m.ProviderCallsTotal.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	m.ProviderCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordStep records how long one agent step took
func (m *Metrics) RecordStep(agent string, ok bool, duration time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.StepDuration.WithLabelValues(agent, outcome).Observe(duration.Seconds())
}

// RecordRotation counts a credential rotation
func (m *Metrics) RecordRotation(service, reason string) {
	m.CredentialRotations.WithLabelValues(service, reason).Inc()
}
