package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleychat/parley/pkg/observability"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/transport"
)

// Server wraps an http.Server with the transport adapter and manages the
// full lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
	auth       transport.AuthFunc
	extraMW    []transport.Middleware
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		MaxBodySize:     10 << 20, // 10 MB
		ShutdownTimeout: 30 * time.Second,
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithAuth installs an authentication hook applied to all /v1 routes.
// Without it every request runs unauthenticated and ownership checks are
// skipped.
func WithAuth(fn transport.AuthFunc) ServerOption {
	return func(s *Server) { s.auth = fn }
}

// WithMiddleware appends middleware applied to the /v1 routes after the
// defaults. Use it for full auth chains that need their own context
// injection.
func WithMiddleware(mw ...transport.Middleware) ServerOption {
	return func(s *Server) { s.extraMW = append(s.extraMW, mw...) }
}

// NewServer creates a transport server dispatching chat exchanges to the
// given exchanger. Default middleware (recovery, request ID, logging,
// metrics) is applied to the API routes; /metrics and /healthz bypass it.
func NewServer(exchanger transport.Exchanger, store storage.Store, opts ...ServerOption) *Server {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	middlewares := []transport.Middleware{
		transport.Recovery(s.logger),
		transport.RequestID(),
		transport.Logging(s.logger),
		observability.MetricsMiddleware,
	}
	if s.auth != nil {
		middlewares = append(middlewares, transport.Authenticate(s.auth))
	}
	middlewares = append(middlewares, s.extraMW...)

	s.adapter = NewAdapter(exchanger, store, Config{MaxBodySize: s.config.MaxBodySize}, middlewares...)

	root := http.NewServeMux()
	root.Handle("/v1/", s.adapter.Handler())
	root.Handle("GET /metrics", promhttp.Handler())
	root.HandleFunc("GET /healthz", healthHandler(store))

	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: root,
	}

	return s
}

// healthHandler reports storage health when the store exposes a check,
// otherwise it only signals process liveness.
func healthHandler(store storage.Store) http.HandlerFunc {
	type healthChecker interface {
		HealthCheck(ctx context.Context) error
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if hc, ok := store.(healthChecker); ok {
			if err := hc.HealthCheck(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down, waiting
// for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ln net.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
