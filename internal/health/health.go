// Package health provides the liveness and readiness endpoints.
//
// /healthz reports that the process is up. /readyz reports 200 only once
// startup has finished and every registered component is ready, and lists
// each component's state.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Server is a lightweight HTTP server that exposes /healthz and /readyz.
type Server struct {
	port   int
	ready  atomic.Bool
	server *http.Server

	mu         sync.RWMutex
	components map[string]bool
}

// New creates a new health check server.
func New(port int) *Server {
	return &Server{port: port, components: make(map[string]bool)}
}

// SetReady marks the service as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// SetComponent records the readiness of a named component, such as a transport.
func (s *Server) SetComponent(name string, ready bool) {
	s.mu.Lock()
	s.components[name] = ready
	s.mu.Unlock()
}

type status struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (s *Server) snapshot() (bool, status) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ok := s.ready.Load()
	st := status{Components: make(map[string]string, len(s.components))}
	names := make([]string, 0, len(s.components))
	for name := range s.components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s.components[name] {
			st.Components[name] = "ok"
		} else {
			st.Components[name] = "not_ready"
			ok = false
		}
	}
	st.Status = "ok"
	if !ok {
		st.Status = "not_ready"
	}
	return ok, st
}

// Handler returns the health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, status{Status: "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ok, st := s.snapshot()
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, st)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
