// Package server is the HTTP shell around the file handler: listener,
// middleware chain, error boundary and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"simpleserver/internal/accesslog"
)

// FileHandler serves a single request. A nil error means the response is
// complete; anything else is handed to the error boundary.
type FileHandler interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// AccessRecorder persists one entry per handled request
type AccessRecorder interface {
	Record(ctx context.Context, e accesslog.Entry) error
}

// Options configures the HTTP server
type Options struct {
	Addr         string
	Serial       bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AccessLog is optional
	AccessLog AccessRecorder
}

// Server represents the HTTP file server
type Server struct {
	server *http.Server
	addr   string
	logger *slog.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(opts Options, files FileHandler, logger *slog.Logger) *Server {
	s := &Server{
		addr:   opts.Addr,
		logger: logger,
	}

	handler := s.applyMiddleware(ErrorBoundary(logger, files), opts)
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return s
}

// Listen binds the configured address
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())

	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Start listens on the configured address and serves
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler, opts Options) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = RecoveryMiddleware(s.logger)(handler)
	if opts.Serial {
		handler = SerialMiddleware()(handler)
	}
	if opts.AccessLog != nil {
		handler = AccessLogMiddleware(opts.AccessLog, s.logger)(handler)
	}
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
