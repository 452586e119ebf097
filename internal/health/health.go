// Package health serves liveness, readiness and per-component health for the
// scanner on its own port.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 5 * time.Second

// Status is the /health body.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check is one component's result.
type Check struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

// CheckFunc reports a component's health and an optional detail.
type CheckFunc func(ctx context.Context) (bool, string)

// AllHealthy adapts a per-component map, such as venue breaker state, into a
// CheckFunc. The message lists the unhealthy keys sorted.
func AllHealthy[K ~string](fn func() map[K]bool) CheckFunc {
	return func(ctx context.Context) (bool, string) {
		var down []string
		for k, ok := range fn() {
			if !ok {
				down = append(down, string(k))
			}
		}
		if len(down) == 0 {
			return true, ""
		}
		sort.Strings(down)
		return false, "unhealthy: " + strings.Join(down, ", ")
	}
}

// Server owns the registered checks and the HTTP listener.
type Server struct {
	port    int
	version string

	mu     sync.RWMutex
	checks map[string]CheckFunc
	server *http.Server
}

func NewServer(port int, version string) *Server {
	return &Server{port: port, version: version, checks: make(map[string]CheckFunc)}
}

// RegisterCheck adds or replaces a named check.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// Handler routes /health, /ready and /live. Only GET is accepted.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("alive"))
	}).Methods(http.MethodGet)
	return r
}

// Start binds synchronously so a busy port surfaces here, then serves in the
// background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("health listen on %d: %w", s.port, err)
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: checkTimeout}
	go s.server.Serve(ln)
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// evaluate runs every check concurrently under a shared deadline.
func (s *Server) evaluate(ctx context.Context) (map[string]Check, bool) {
	s.mu.RLock()
	checks := make(map[string]CheckFunc, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]Check, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			ok, msg := check(gctx)
			mu.Lock()
			results[name] = Check{Healthy: ok, Message: msg, Duration: time.Since(start).String()}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	healthy := true
	for _, c := range results {
		healthy = healthy && c.Healthy
	}
	return results, healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, healthy := s.evaluate(r.Context())
	status := Status{
		Status:    "ok",
		Checks:    results,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, healthy := s.evaluate(r.Context()); !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}
	w.Write([]byte("ready"))
}
