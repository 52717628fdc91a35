// Package http exposes the routing API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/routing"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the evacuation routing API.
type Server struct {
	httpServer *http.Server
	engine     *routing.Engine
	alerts     domain.AlertStore
	shelters   domain.ShelterStore
	logger     *slog.Logger
}

// NewServer creates the HTTP server with the routing endpoint, catalog reads,
// and the operational routes.
func NewServer(addr string, engine *routing.Engine, alerts domain.AlertStore, shelters domain.ShelterStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		engine:   engine,
		alerts:   alerts,
		shelters: shelters,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", s.handleRoute)
		r.Get("/alerts", s.handleListAlerts)
		r.Get("/shelters", s.handleListShelters)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.RequestError{Code: domain.CodeBadRequest, Hint: "request body is not valid JSON"})
		return
	}

	resp, reqErr := s.engine.Route(r.Context(), req)
	if reqErr != nil {
		writeError(w, reqErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.alerts.ListAlerts(r.Context())
	if err != nil {
		s.logger.Error("listing alerts", "error", err)
		writeError(w, &domain.RequestError{Code: domain.CodeInternal, Hint: "alert listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleListShelters(w http.ResponseWriter, r *http.Request) {
	shelters, err := s.shelters.ListShelters(r.Context())
	if err != nil {
		s.logger.Error("listing shelters", "error", err)
		writeError(w, &domain.RequestError{Code: domain.CodeInternal, Hint: "shelter listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shelters": shelters, "count": len(shelters)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// statusForCode maps the error taxonomy onto HTTP statuses.
func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodeBadRequest, domain.CodeMissingFields:
		return http.StatusBadRequest
	case domain.CodeOriginNotFound, domain.CodeAlertNotFound:
		return http.StatusNotFound
	case domain.CodeNoSafeShelters:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, reqErr *domain.RequestError) {
	body := map[string]string{"error": string(reqErr.Code)}
	if reqErr.Hint != "" {
		body["hint"] = reqErr.Hint
	}
	writeJSON(w, statusForCode(reqErr.Code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
