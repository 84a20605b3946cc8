// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/models"
)

// Chatter processes one chat request. The pipeline satisfies it.
type Chatter interface {
	Process(ctx context.Context, req *models.ChatRequest) *models.ChatResponse
}

// Status describes the running service for the status endpoint.
type Status struct {
	Documents      int         `json:"documents"`
	Articles       int         `json:"articles"`
	Recipes        int         `json:"recipes"`
	CorpusLoadedAt time.Time   `json:"corpus_loaded_at"`
	Scenarios      map[int]int `json:"scenarios,omitempty"`
}

// Server is the HTTP front of the pipeline. The chatter can be swapped at
// runtime when the corpus is rebuilt.
type Server struct {
	mu      sync.RWMutex
	chatter Chatter
	status  func(ctx context.Context) Status

	router chi.Router
	logger *zap.Logger
}

// New creates the server. status may be nil; the endpoint then reports zeros.
func New(chatter Chatter, status func(ctx context.Context) Status, logger *zap.Logger) *Server {
	s := &Server{chatter: chatter, status: status, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/status", s.handleStatus)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetChatter swaps the pipeline, used after a corpus rebuild. In-flight
// requests finish on the old one.
func (s *Server) SetChatter(c Chatter) {
	s.mu.Lock()
	s.chatter = c
	s.mu.Unlock()
}

// ListenAndServe blocks serving HTTP until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.RLock()
	chatter := s.chatter
	s.mu.RUnlock()

	resp := chatter.Process(r.Context(), &req)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st Status
	if s.status != nil {
		st = s.status(r.Context())
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

// logRequests logs one line per request with latency and status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
