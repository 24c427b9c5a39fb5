package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"reservas/internal/config"
	"reservas/internal/domain"
	"reservas/internal/logging"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the reservation API over HTTP.
type HTTPServer struct {
	cfg     *config.Config
	svc     domain.ReservationService
	limiter RateLimiter
	logger  *zerolog.Logger
	server  *http.Server
}

// NewHTTPServer builds the router. limiter may be nil to disable rate limiting.
func NewHTTPServer(cfg *config.Config, svc domain.ReservationService, limiter RateLimiter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		limiter: limiter,
		logger:  logging.Component(logger, "http"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(srv.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(srv.rateLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Get("/healthz", srv.handleHealthz)
	r.Get("/readyz", srv.handleReadyz)

	r.Route("/api/reservas", func(r chi.Router) {
		r.Get("/", srv.handleList)
		r.Post("/", srv.handleCreate)
		r.Get("/export", srv.handleExport)
		r.Get("/{id}", srv.handleGet)
		r.Put("/{id}", srv.handleUpdate)
		r.Delete("/{id}", srv.handleDelete)
	})

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"reservations": s.svc.CountReservations(),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Message: message})
}
