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

	"github.com/rhuss/omotenashi/pkg/transport"
)

// Server wraps an http.Server with the transport adapter and manages
// the full lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
	MetricsPath     string
	Logger          *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MiB
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MetricsPath:     "/metrics",
		Logger:          slog.Default(),
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

// WithTimeouts sets the read and write timeouts of the HTTP server.
// The write timeout bounds the total length of a stream.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.config.ReadTimeout = read
		s.config.WriteTimeout = write
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithStaticDir serves a front-end directory at "/" and "/static/".
func WithStaticDir(dir string) ServerOption {
	return func(s *Server) { s.config.StaticDir = dir }
}

// WithMetricsPath sets the Prometheus endpoint path. An empty path
// disables the endpoint.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = path }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// NewServer creates a new transport server with the given handler and options.
// Default middleware (recovery, request ID, logging) is applied automatically.
func NewServer(handler transport.ChatHandler, opts ...ServerOption) *Server {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	adapterCfg := Config{
		MaxBodySize: s.config.MaxBodySize,
		StaticDir:   s.config.StaticDir,
		MetricsPath: s.config.MetricsPath,
	}

	defaultMW := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(s.logger),
	}

	s.adapter = NewAdapter(handler, adapterCfg, defaultMW...)

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.adapter.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Open streams would otherwise hold Shutdown until the deadline.
	// Cancelling them makes each one emit its end event and return.
	s.httpServer.RegisterOnShutdown(func() {
		if n := s.adapter.inflight.CancelAll(); n > 0 {
			s.logger.Info("cancelled in-flight streams", slog.Int("count", n))
		}
	})

	return s
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.listenAndServeWithContext(ctx)
}

func (s *Server) listenAndServeWithContext(ctx context.Context) error {
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

// ServeOn starts the server on the given listener and blocks until ctx is
// done, then shuts down gracefully. Used for testing.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
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

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
