// Package metrics exposes Prometheus collectors for the pagecheck service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checksTotal          *prometheus.CounterVec
	unreachableTotal     *prometheus.CounterVec
	fetchDurationSeconds prometheus.Histogram
	urlsRegisteredTotal  prometheus.Counter
	httpRequestsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		checksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecheck_checks_total",
				Help: "Total checks recorded, labeled by outcome (responded or unreachable).",
			},
			[]string{"outcome"},
		)

		unreachableTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecheck_unreachable_total",
				Help: "Unreachable fetch outcomes, labeled by transport-level reason.",
			},
			[]string{"reason"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagecheck_fetch_duration_seconds",
				Help:    "Histogram of outbound fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		urlsRegisteredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pagecheck_urls_registered_total",
				Help: "Total URLs registered for the first time.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests served, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records a completed check with its fetch outcome.
func ObserveCheck(responded bool, duration time.Duration) {
	outcome := "responded"
	if !responded {
		outcome = "unreachable"
	}
	checksTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		fetchDurationSeconds.Observe(duration.Seconds())
	}
}

// ObserveUnreachable counts an unreachable outcome by classified reason.
func ObserveUnreachable(reason string) {
	unreachableTotal.WithLabelValues(reason).Inc()
}

// ObserveURLRegistered counts a first-time registration.
func ObserveURLRegistered() {
	urlsRegisteredTotal.Inc()
}

// ObserveHTTPRequest counts a served HTTP request.
func ObserveHTTPRequest(method string, code int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
