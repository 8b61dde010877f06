// Package metrics exposes Prometheus collectors for extraction runs.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	targetsTotal               *prometheus.CounterVec
	targetDurationSeconds      prometheus.Histogram
	recordsWrittenTotal        *prometheus.CounterVec
	sinkFailuresTotal          *prometheus.CounterVec
	navigationsTotal           *prometheus.CounterVec
	navigationTimeoutsTotal    prometheus.Counter
	rateLimitDelaySeconds      prometheus.Histogram
	lookupsAbsentTotal         *prometheus.CounterVec
	candidatesTotal            *prometheus.CounterVec
	translationsTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call repeatedly;
// every Observe helper calls it.
func Init() {
	once.Do(func() {
		targetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_targets_total",
				Help: "Targets processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		targetDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orgextract_target_duration_seconds",
				Help:    "Wall time spent aggregating one target.",
				Buckets: []float64{10, 30, 60, 90, 120, 180, 300, 600},
			},
		)

		recordsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_records_written_total",
				Help: "Records appended to a sink, labeled by sink.",
			},
			[]string{"sink"},
		)

		sinkFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_sink_failures_total",
				Help: "Failed sink appends, labeled by sink.",
			},
			[]string{"sink"},
		)

		navigationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_navigations_total",
				Help: "Page navigations, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		navigationTimeoutsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orgextract_navigation_timeouts_total",
				Help: "Navigations whose readiness marker never appeared.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orgextract_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the navigation rate limiter.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		lookupsAbsentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_lookups_absent_total",
				Help: "Selector chains that resolved to nothing, labeled by field.",
			},
			[]string{"field"},
		)

		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_people_candidates_total",
				Help: "People-search candidates, labeled by decision.",
			},
			[]string{"decision"},
		)

		translationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_translations_total",
				Help: "Translation attempts, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgextract_http_requests_total",
				Help: "Requests served by the metrics listener, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgextract_http_request_duration_seconds",
				Help:    "Latency of requests served by the metrics listener.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL for use as a label.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTarget records the outcome and duration of one target.
func ObserveTarget(outcome string, duration time.Duration) {
	Init()
	targetsTotal.WithLabelValues(outcome).Inc()
	targetDurationSeconds.Observe(duration.Seconds())
}

// ObserveRecordWritten counts a successful sink append.
func ObserveRecordWritten(sink string) {
	Init()
	recordsWrittenTotal.WithLabelValues(sink).Inc()
}

// ObserveSinkFailure counts a failed sink append.
func ObserveSinkFailure(sink string) {
	Init()
	sinkFailuresTotal.WithLabelValues(sink).Inc()
}

// ObserveNavigation counts a navigation to rawURL.
func ObserveNavigation(rawURL, status string) {
	Init()
	navigationsTotal.WithLabelValues(SanitizeSite(rawURL), status).Inc()
}

// ObserveNavigationTimeout counts a readiness timeout.
func ObserveNavigationTimeout() {
	Init()
	navigationTimeoutsTotal.Inc()
}

// ObserveRateLimitDelay records the duration of a rate limiter wait.
func ObserveRateLimitDelay(duration time.Duration) {
	Init()
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveLookupAbsent counts a selector chain that resolved to nothing.
func ObserveLookupAbsent(field string) {
	Init()
	lookupsAbsentTotal.WithLabelValues(field).Inc()
}

// ObserveCandidate counts an accepted or rejected people candidate.
func ObserveCandidate(accepted bool) {
	Init()
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	candidatesTotal.WithLabelValues(decision).Inc()
}

// ObserveTranslation counts a translation attempt by result.
func ObserveTranslation(result string) {
	Init()
	translationsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records a request served by the metrics listener.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
