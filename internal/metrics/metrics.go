// Package metrics exposes Prometheus counters and histograms for the HTTP
// surface, response submission, aggregation and the insight digest.
//
// Every method is safe on a nil *Metrics, so components can be built without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pollsight"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	responsesSubmitted *prometheus.CounterVec
	responsesRejected  *prometheus.CounterVec
	valuesExcluded     *prometheus.CounterVec
	aggregateDuration  *prometheus.HistogramVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	digestRuns         *prometheus.CounterVec
	digestPollsSent    prometheus.Counter
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		responsesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_submitted_total",
			Help:      "Responses accepted, by poll type.",
		}, []string{"poll_type"}),
		responsesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_rejected_total",
			Help:      "Responses rejected, by reason.",
		}, []string{"reason"}),
		valuesExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_excluded_total",
			Help:      "Stored response values skipped during aggregation because they could not be coerced.",
		}, []string{"poll_type"}),
		aggregateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Time spent loading and aggregating a poll's responses.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"poll_type"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_hits_total",
			Help:      "Own-answer lookups served by the local response cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_misses_total",
			Help:      "Own-answer lookups that fell through to the store.",
		}),
		digestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_runs_total",
			Help:      "Insight digest cycles by result.",
		}, []string{"result"}),
		digestPollsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_polls_sent_total",
			Help:      "Polls included in sent digests.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.responsesSubmitted,
		m.responsesRejected,
		m.valuesExcluded,
		m.aggregateDuration,
		m.cacheHits,
		m.cacheMisses,
		m.digestRuns,
		m.digestPollsSent,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) ResponseSubmitted(pollType string) {
	if m == nil {
		return
	}
	m.responsesSubmitted.WithLabelValues(pollType).Inc()
}

func (m *Metrics) ResponseRejected(reason string) {
	if m == nil {
		return
	}
	m.responsesRejected.WithLabelValues(reason).Inc()
}

// Aggregated records one aggregation pass.
func (m *Metrics) Aggregated(pollType string, excluded int, d time.Duration) {
	if m == nil {
		return
	}
	m.aggregateDuration.WithLabelValues(pollType).Observe(d.Seconds())
	if excluded > 0 {
		m.valuesExcluded.WithLabelValues(pollType).Add(float64(excluded))
	}
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// Digest cycle results.
const (
	DigestSent    = "sent"
	DigestEmpty   = "empty"
	DigestSkipped = "skipped" // nothing configured to send to
	DigestFailed  = "failed"
)

// DigestRun records a digest cycle under one of the Digest* results.
func (m *Metrics) DigestRun(result string, pollsSent int) {
	if m == nil {
		return
	}
	m.digestRuns.WithLabelValues(result).Inc()
	if pollsSent > 0 {
		m.digestPollsSent.Add(float64(pollsSent))
	}
}
