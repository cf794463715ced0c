// Package app assembles the HTTP surface: middleware chain, routes and
// readiness probes.
package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hiretrack/hiretrack/internal/adapter/httpserver"
	"github.com/hiretrack/hiretrack/internal/adapter/observability"
	"github.com/hiretrack/hiretrack/internal/config"
	"github.com/hiretrack/hiretrack/internal/domain"
)

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(2 * time.Minute))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit mutating endpoints.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))

		wr.Post("/v1/cvs/upload", srv.UploadCVsHandler())
		wr.Post("/v1/candidates/{id}/rerun-matching", srv.RerunMatchingHandler())
		wr.Delete("/v1/candidates/{id}", srv.DeleteCandidateHandler())

		wr.Post("/v1/jobs", srv.CreateJobHandler())
		wr.Post("/v1/jobs/from-url", srv.CreateJobFromURLHandler())
		wr.Post("/v1/jobs/from-pdf", srv.CreateJobFromPDFHandler())
		wr.Put("/v1/jobs/{id}/matrix", srv.UpdateJobMatrixHandler())
		wr.Post("/v1/jobs/{id}/matrix", srv.RegenerateJobMatrixHandler())

		wr.Post("/v1/bulk-operations/regenerate-matrices", srv.StartBulkHandler(domain.BulkRegenerateMatrices))
		wr.Post("/v1/bulk-operations/rerun-matching", srv.StartBulkHandler(domain.BulkRerunMatching))
		wr.Post("/v1/bulk-operations/regenerate-and-match", srv.StartBulkHandler(domain.BulkRegenerateAndMatch))
		wr.Post("/v1/bulk-operations/{job_id}/cancel", srv.BulkCancelHandler())
	})

	// Read-only endpoints.
	r.Get("/v1/candidates", srv.ListCandidatesHandler())
	r.Get("/v1/candidates/{id}", srv.GetCandidateHandler())
	r.Get("/v1/candidates/{id}/matches", srv.ListCandidateMatchesHandler())
	r.Get("/v1/jobs/{id}", srv.GetJobHandler())
	r.Get("/v1/jobs/{id}/matrix", srv.GetJobMatrixHandler())
	r.Get("/v1/jobs/{id}/matches", srv.ListJobMatchesHandler())
	r.Get("/v1/bulk-operations/{job_id}", srv.BulkStatusHandler())

	// Health and metrics.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(otelhttp.NewHandler(r, "http.server"))
}
