package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	IngestedFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingested_files_total",
			Help: "CV files processed by the ingestion pipeline, by outcome",
		},
		[]string{"outcome"},
	)
	MatchesComputedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_computed_total",
			Help: "Total number of (candidate, job) pairs scored",
		},
	)
	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_score",
			Help:    "Distribution of final match scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of model calls by task and status",
		},
		[]string{"task", "status"},
	)

	BulkJobsRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bulk_jobs_running",
			Help: "Bulk jobs currently running, by type",
		},
		[]string{"type"},
	)
	BulkTargetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_targets_total",
			Help: "Bulk job targets processed, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(IngestedFilesTotal)
	prometheus.MustRegister(MatchesComputedTotal)
	prometheus.MustRegister(MatchScoreHistogram)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(BulkJobsRunning)
	prometheus.MustRegister(BulkTargetsTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}
