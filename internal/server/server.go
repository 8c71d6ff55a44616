// Package server exposes the Cabinet over HTTP. One set of generic handlers
// serves every resource under /api/{resource}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// pinger is implemented by backends that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server routes API requests to a Cabinet.
type Server struct {
	cabinet types.Cabinet
	log     logger.Logger
	metrics *Metrics
	limiter *RateLimiter
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRateLimit enables per-client rate limiting. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = NewRateLimiter(rps, burst, s.log)
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a Server over an attached Cabinet.
func New(cabinet types.Cabinet, opts ...Option) *Server {
	s := &Server{
		cabinet: cabinet,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.limiter != nil {
		s.limiter.log = s.log
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware(s.log), loggingMiddleware(s.log), s.metrics.Middleware)
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/{resource}").Subrouter()
	// Any method reaches bulk-delete so that it can answer 405 itself.
	api.HandleFunc("/bulk-delete", s.handleBulkDelete)
	api.HandleFunc("", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPatch)
	api.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.cabinet.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
