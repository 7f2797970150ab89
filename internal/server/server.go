// Package server exposes a read-only HTTP API over one emitted document.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"radindex/internal"
	"radindex/internal/logging"
	"radindex/internal/search"
)

type Server struct {
	router *chi.Mux
	server *http.Server

	mu    sync.RWMutex
	index *search.Index
}

func New(doc *internal.Document) *Server {
	s := &Server{
		router: chi.NewRouter(),
		index:  search.BuildIndex(doc),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Reload swaps the served document. In-flight requests finish on the old
// index.
func (s *Server) Reload(doc *internal.Document) {
	idx := search.BuildIndex(doc)
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
}

func (s *Server) current() *search.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/metadata", s.handleMetadata)
		r.Get("/stats", s.handleStats)
		r.Get("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/resolve-error", s.handleResolveError)
		r.Get("/rules/{id}", s.handleRule)
		r.Get("/annexes/{key}", s.handleAnnex)
	})
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context()).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request failed", "status", status, "error", message)
	writeJSONStatus(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode error", "err", err)
	}
}
