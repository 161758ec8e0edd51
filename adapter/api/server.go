// Package api serves the PetConnect adoption API over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// MetricsSnapshotter exposes collected metrics.
type MetricsSnapshotter interface {
	Snapshot() observability.Snapshot
}

// Server is the HTTP API server for adoption requests and notifications.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	handler  *AdoptionHandler
	health   *observability.HealthRegistry
	snapshot MetricsSnapshotter
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RateLimitRPS and RateLimitBurst bound requests per client address.
	// A zero RPS disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "127.0.0.1:5000",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}
}

// ServerDeps are the collaborators of the server. Health and Snapshot may be nil.
type ServerDeps struct {
	Handler  *AdoptionHandler
	Health   *observability.HealthRegistry
	Snapshot MetricsSnapshotter
	Metrics  observability.Metrics
	Logger   *slog.Logger
}

// NewServer creates a new adoption API server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	logger := observability.OrDefault(deps.Logger)
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		handler:  deps.Handler,
		health:   deps.Health,
		snapshot: deps.Snapshot,
	}

	var submit http.Handler = http.HandlerFunc(s.handler.SubmitAdoption)
	if cfg.RateLimitRPS > 0 {
		limiter := NewLimiterStore(cfg.RateLimitRPS, cfg.RateLimitBurst)
		submit = RateLimit(limiter, metrics, logger)(submit)
	}
	s.registerRoutes(submit)

	var handler http.Handler = s.mux
	handler = RequestLogging(logger, metrics)(handler)
	handler = Correlation(handler)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes. Only submit is rate limited.
func (s *Server) registerRoutes(submit http.Handler) {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.mux.Handle("POST /api/v1/adoptions", submit)
	s.mux.HandleFunc("GET /api/v1/notifications", s.handler.ListNotifications)
	s.mux.HandleFunc("POST /api/v1/notifications/clear", s.handler.ClearNotifications)
	s.mux.HandleFunc("POST /api/v1/admin/reset", s.handler.Reset)

	// Paths used by the original page.
	s.mux.Handle("POST /solicitar_adopcion", submit)
	s.mux.HandleFunc("GET /notificaciones", s.handler.ListNotifications)
	s.mux.HandleFunc("POST /limpiar_notificaciones", s.handler.ClearNotifications)
	s.mux.HandleFunc("POST /reset_rabbitmq", s.handler.Reset)
}

// Handler returns the server's root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": string(observability.HealthStatusHealthy),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	overall := s.health.Check(r.Context())
	status := http.StatusOK
	if overall.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, overall)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.snapshot == nil {
		writeJSON(w, http.StatusOK, observability.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot.Snapshot())
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting adoption API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down adoption API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes the error body the page expects.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
