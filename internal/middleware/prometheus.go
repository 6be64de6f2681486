package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	promOnce sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chromaleap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method and status code.",
	}, []string{"method", "code"})

	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chromaleap",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chromaleap",
		Subsystem: "analysis",
		Name:      "total",
		Help:      "Analyze calls that reached the model client, by outcome.",
	}, []string{"outcome"})

	AnalysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chromaleap",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time spent producing one analysis, model call included.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	PersistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chromaleap",
		Subsystem: "analysis",
		Name:      "persist_failures_total",
		Help:      "Analyses returned to the caller but not stored.",
	})
)

// RegisterPrometheus registers the collectors with the default registry.
// Safe to call multiple times.
func RegisterPrometheus() {
	promOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPInFlight,
			AnalysesTotal,
			AnalysisDurationSeconds,
			PersistFailuresTotal,
		)
	})
}

// ObserveAnalysis records one finished analyze call. outcome is "ok" or a
// short error class.
func ObserveAnalysis(outcome string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(outcome).Inc()
	AnalysisDurationSeconds.Observe(elapsed.Seconds())
}

func observeRequest(method string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// PrometheusHandler serves the collectors in the text exposition format.
func PrometheusHandler() http.Handler {
	RegisterPrometheus()
	return promhttp.Handler()
}
