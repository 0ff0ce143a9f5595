// Package server serves a directory over HTTP with the headers browsers
// need for WebAssembly and cross-origin isolation.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
	"github.com/Kush-Singh-26/wasmserve/internal/metrics"
	"github.com/Kush-Singh-26/wasmserve/internal/mimetype"
	"github.com/Kush-Singh-26/wasmserve/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Server is a static file server rooted at a single directory.
type Server struct {
	cfg      *config.Config
	registry *mimetype.Registry
	fs       afero.Fs
	logger   *slog.Logger
	out      io.Writer
	metrics  *metrics.ServeMetrics

	// watchDir is the on-disk root reported by the watcher; empty when
	// serving from a caller-supplied filesystem.
	watchDir string
}

// Option configures a Server.
type Option func(*Server)

// WithFs serves from fsys instead of cfg.Root on disk. The root watcher is
// disabled since fsys may not be backed by a real directory.
func WithFs(fsys afero.Fs) Option {
	return func(s *Server) {
		s.fs = fsys
		s.watchDir = ""
	}
}

// WithLogger sets the logger used for access and diagnostic logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithOutput sets where the startup banner is printed.
func WithOutput(w io.Writer) Option {
	return func(s *Server) {
		s.out = w
	}
}

// New creates a server for cfg. Files are read through a read-only view
// of cfg.Root that cannot resolve paths outside of it.
func New(cfg *config.Config, registry *mimetype.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		fs:       afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)),
		logger:   slog.Default(),
		out:      os.Stdout,
		metrics:  metrics.NewServeMetrics(),
		watchDir: cfg.Root,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full handler chain: access log, isolation headers,
// content type, file server.
func (s *Server) Handler() http.Handler {
	fileServer := http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))

	return chain(fileServer,
		accessLog(s.logger, s.metrics),
		isolationHeaders,
		contentType(s.fs, s.registry),
	)
}

// Listen binds the configured address.
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return ln, nil
}

// Run binds the port, prints the startup banner and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	port := s.cfg.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	_, _ = fmt.Fprintf(s.out, "🌐 Serving at http://localhost:%d\n", port)
	_, _ = fmt.Fprintln(s.out, "📦 WASM files will be served with proper application/wasm MIME type")

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:  s.Handler(),
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if s.watchDir != "" {
		w, err := watch.New([]string{s.watchDir}, s.onChange, s.logger)
		if err != nil {
			s.logger.Warn("Failed to create file watcher", "error", err)
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	err := g.Wait()
	s.logger.Info(s.metrics.String())
	return err
}

// Metrics returns the counters for this server's session.
func (s *Server) Metrics() *metrics.ServeMetrics {
	return s.metrics
}

func (s *Server) onChange(e watch.Event) {
	rel, err := filepath.Rel(s.watchDir, e.Name)
	if err != nil {
		rel = e.Name
	}
	s.logger.Info("Content changed", "path", filepath.ToSlash(rel), "op", e.Op.String())
}
