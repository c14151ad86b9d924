// Package server exposes watcher health, status and metrics over HTTP.
//
// Routes:
//   - GET /healthz: plain "ok"
//   - GET /status: the watcher's last check result and stored state as JSON
//   - GET /metrics: the logger metrics snapshot as JSON
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pfrederiksen/wahlumfragen/internal/logger"
	"github.com/pfrederiksen/wahlumfragen/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

// StatusProvider reports the current watcher status
type StatusProvider interface {
	Status() watcher.Status
}

// Server serves the status endpoints
type Server struct {
	addr    string
	status  StatusProvider
	metrics *logger.Metrics
	log     *logger.Logger

	mu         sync.Mutex
	listenAddr string
	httpServer *http.Server
}

// New creates a Server listening on addr (for example ":8080").
// The server is not started until Start is called.
func New(addr string, status StatusProvider, metrics *logger.Metrics, log *logger.Logger) *Server {
	if metrics == nil {
		metrics = logger.DefaultMetrics()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		addr:    addr,
		status:  status,
		metrics: metrics,
		log:     log.With(logger.Fields{"component": "server"}),
	}
}

// Handler returns the router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/metrics", s.handleMetrics)

	return r
}

// Start binds the listener and serves in the background until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding status server to %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.listenAddr = ln.Addr().String()
	s.httpServer = srv
	s.mu.Unlock()

	s.log.Info("status server listening", logger.Fields{"addr": s.listenAddr})

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server error", nil, err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("status server shutdown error", nil, err)
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		http.Error(w, "watcher not running", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.status.Status())
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.metrics.GetSnapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", nil, err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		})
	})
}
