package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// StatusPath is the path of the router status endpoint.
const StatusPath = "/status"

// Options are the handlers the server exposes. Nil handlers are not mounted.
type Options struct {
	// Checker backs /healthz and /readyz.
	Checker *health.Checker

	// Version is reported on /version.
	Version health.VersionInfo

	// Metrics is the Prometheus handler, mounted at MetricsPath.
	Metrics     http.Handler
	MetricsPath string

	// Status returns the value encoded on /status.
	Status func() any

	// Tracer wraps every route in a server span. Defaults to a no-op tracer.
	Tracer *tracing.Tracer
}

// Server serves metrics, health probes and router status.
type Server struct {
	config config.ServerConfig
	opts   Options

	mu           sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	isRunning    bool
	shutdownOnce sync.Once
}

// New creates a server. It does not listen until Start is called.
func New(cfg config.ServerConfig, opts Options) *Server {
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if opts.Checker == nil {
		opts.Checker = health.New(cfg.HealthCheckTimeout)
	}
	return &Server{
		config: cfg,
		opts:   opts,
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.isRunning = true
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting operations server", "address", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.WithoutCancel(ctx))
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server. Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		httpServer, running := s.httpServer, s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("operations server stopped")
	})

	return shutdownErr
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(route string, h http.Handler) {
		mux.Handle(route, tracing.HTTPMiddleware(s.opts.Tracer, route, h))
	}

	handle(health.LivePath, s.opts.Checker.LiveHandler())
	handle(health.ReadyPath, s.opts.Checker.ReadyHandler())
	handle(health.VersionPath, health.VersionHandler(s.opts.Version.Version, s.opts.Version.Commit, s.opts.Version.BuildTime))

	if s.opts.Metrics != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		handle(path, s.opts.Metrics)
	}
	if s.opts.Status != nil {
		handle(StatusPath, statusHandler(s.opts.Status))
	}

	var handler http.Handler = mux
	handler = RequestIDMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

func statusHandler(status func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			return
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(status()); err != nil {
			slog.ErrorContext(r.Context(), "failed to encode status", "error", err)
		}
	}
}
