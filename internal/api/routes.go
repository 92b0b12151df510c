package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultRequestTimeout is the soft deadline applied to request contexts when
// no explicit RequestTimeout is configured. It must exceed a full cold
// generation pass (fetch + render + resample).
const defaultRequestTimeout = 90 * time.Second

// defaultRedactedHeaders lists header names whose values are masked in
// request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes registers the global middleware chain and all routes.
//
// Middleware ordering:
//  1. Recoverer       - catches panics; outermost to catch all failures.
//  2. ContextTimeout  - bounds every request, including cold generation.
//  3. RequestID       - generates/propagates the correlation ID.
//  4. SecurityHeaders - present on all responses regardless of outcome.
//  5. RequestLogger   - structured logging with redacted headers.
//  6. Metrics         - request count and latency recording.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(s.MetricsMiddleware)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.HandleStatus)
		r.Get("/report/image", s.HandleReportImage)
		r.Post("/report/generate", s.HandleGenerate)
	})

	s.router.Get("/health", s.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}
