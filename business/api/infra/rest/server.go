// Package rest serves the simulator over a local JSON API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fd1az/venue-arbitrage/internal/apm"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const tracerName = "api"

type ctxKey struct{}

// RequestID returns the id assigned to the request, or "unknown".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return "unknown"
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration // per-request context deadline
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	return c
}

// Server is the JSON API server.
type Server struct {
	config   Config
	router   *mux.Router
	handler  http.Handler
	handlers *Handlers
	logger   logger.LoggerInterface
	server   *http.Server
	addr     net.Addr
}

// NewServer builds the router. Nothing listens until Start.
func NewServer(cfg Config, h *Handlers, log logger.LoggerInterface) *Server {
	s := &Server{
		config:   cfg.withDefaults(),
		router:   mux.NewRouter(),
		handlers: h,
		logger:   log,
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers the endpoints. Router middleware only runs on a
// matched route, so request ids and access logs wrap the whole router.
func (s *Server) setupRoutes() {
	s.router.Use(apm.HTTPMiddleware(apm.NewTracer(tracerName), routeTemplate))
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/fees", s.handlers.Fees).Methods(http.MethodGet)
	s.router.HandleFunc("/quotes", s.handlers.Quotes).Methods(http.MethodGet)
	s.router.HandleFunc("/opportunities", s.handlers.Opportunities).Methods(http.MethodGet)
	s.router.HandleFunc("/break-even", s.handlers.BreakEven).Methods(http.MethodGet)
	s.router.HandleFunc("/simulate", s.handlers.Simulate).Methods(http.MethodPost)
	s.router.HandleFunc("/execute", s.handlers.Execute).Methods(http.MethodPost)
	s.router.HandleFunc("/ledger", s.handlers.Ledger).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions", s.handlers.Transactions).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handlers.MethodNotAllowed)

	s.handler = s.requestIDMiddleware(s.requestLoggingMiddleware(s.router))
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return ""
}

// requestIDMiddleware keeps the caller's X-Request-ID or assigns one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()[:8]
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Info(r.Context(), "api request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Handler returns the routed handler with all middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background. A busy port is
// reported here rather than from the serving goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr()

	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "api server stopped", "error", err)
		}
	}()

	s.logger.Info(context.Background(), "api server listening", "addr", s.addr.String())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
