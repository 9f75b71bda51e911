package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tsgate/internal/observability/metrics"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness and scrape endpoints (no auth required)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	// Data plane
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/data", s.handleCreate)
		r.Get("/data", s.handleList)
		r.Put("/data/{id}", s.handleUpdate)
		r.Delete("/data/{id}", s.handleDelete)
	})

	// Anything else, including wrong-method requests on known paths, is a
	// plain 404 to the client.
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}
