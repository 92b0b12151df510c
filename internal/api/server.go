// Package api provides the HTTP surface for the report service. It wires a
// chi router with the cross-cutting middleware chain -- panic recovery,
// request correlation, security headers, structured request logging -- before
// requests reach the report handlers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ripwatch/internal/config"
	"ripwatch/internal/observability"
	"ripwatch/internal/types"
)

// ReportCoordinator is the report access surface the handlers need. Implemented
// by *forecast.Coordinator.
type ReportCoordinator interface {
	// Generate starts or joins a generation and returns its result.
	Generate(ctx context.Context) (*types.ForecastResult, error)
	// EnsureReport returns the current report, generating one only if missing.
	EnsureReport(ctx context.Context) (*types.ForecastResult, error)
	// Last returns the most recent completed result, or nil.
	Last() *types.ForecastResult
	// OutputPath returns the canonical path of the final report image.
	OutputPath() string
}

// Server encapsulates the API dependencies, allowing for easy injection
// during testing.
type Server struct {
	Config      *config.Config
	Coordinator ReportCoordinator
	Logger      *slog.Logger
	Metrics     *observability.HTTPMetrics // optional; nil disables recording

	router *chi.Mux
}

// NewServer prepares the server for route mounting. It performs a fail-fast
// check on critical dependencies.
//
// The caller is responsible for mounting routes via MountRoutes after
// construction; the separation lets tests customize registration.
func NewServer(cfg *config.Config, coordinator ReportCoordinator, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		Config:      cfg,
		Coordinator: coordinator,
		Logger:      logger,
		router:      chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}
