// Package httpapi exposes the Domain Store over HTTP. Each presentation
// client opens a session and gets its own store instance; the session token
// travels in the X-Session-Token header.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionHeader = "X-Session-Token"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the session, domain, health, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	sessions   *SessionManager
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, sessions *SessionManager, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		ready:    ready,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions", s.handleDeleteSession)

	mux.HandleFunc("POST /api/login", s.withSession(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSession(s.handleLogout))
	mux.HandleFunc("GET /api/me", s.withSession(s.handleMe))

	mux.HandleFunc("GET /api/locations", s.withSession(s.handleListLocations))
	mux.HandleFunc("POST /api/locations", s.withSession(s.handleAddLocation))
	mux.HandleFunc("GET /api/locations/{id}", s.withSession(s.handleGetLocation))
	mux.HandleFunc("GET /api/locations/{id}/reports", s.withSession(s.handleLocationReports))

	mux.HandleFunc("POST /api/reports", s.withSession(s.handleSubmitReport))

	mux.HandleFunc("GET /api/session", s.withSession(s.handleSessionState))
	mux.HandleFunc("PUT /api/session/view", s.withSession(s.handleSetView))
	mux.HandleFunc("PUT /api/session/filter", s.withSession(s.handleSetFilter))
	mux.HandleFunc("PUT /api/session/selection", s.withSession(s.handleSetSelection))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}
