// Package server exposes the parsers, graph builder and merge over HTTP.
//
// Routes:
//
//	GET  /healthz                  liveness and build info
//	GET  /metrics                  Prometheus metrics
//	GET  /v1/formats               known formats and their file patterns
//	POST /v1/parse/{format}        raw file text in, normalized records out
//	POST /v1/graph/{format}        raw file text in, graph document out
//	POST /v1/merge                 graph documents in, merged document out
//	GET  /v1/snapshots             stored snapshots, newest first
//	GET  /v1/snapshots/{id}        one snapshot with its graph
//
// Failures are JSON objects with a machine-readable code. Parse and decode
// failures return 422 with the failing line or byte offset.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/depscan/pkg/deps"
	"github.com/matzehuels/depscan/pkg/scan"
	"github.com/matzehuels/depscan/pkg/storage"
)

// DefaultMaxBodySize limits request bodies when Options leaves it at zero.
const DefaultMaxBodySize int64 = 16 << 20

// Options configures a Server.
type Options struct {
	// Store serves the snapshot routes. Nil disables them.
	Store storage.Store
	// Gatherer backs /metrics. Nil selects the default registry.
	Gatherer prometheus.Gatherer
	// MaxBodySize limits request bodies (default DefaultMaxBodySize).
	MaxBodySize int64
	// Timeout bounds each request (default 30s).
	Timeout time.Duration
}

// Server handles API requests. Its handlers hold no per-request state.
type Server struct {
	registry *deps.Registry
	scanner  *scan.Scanner
	store    storage.Store
	gatherer prometheus.Gatherer
	logger   *log.Logger
	maxBody  int64
	timeout  time.Duration
}

// New creates a server that parses with s.
func New(s *scan.Scanner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	srv := &Server{
		registry: s.Registry,
		scanner:  s,
		store:    opts.Store,
		gatherer: opts.Gatherer,
		logger:   logger,
		maxBody:  opts.MaxBodySize,
		timeout:  opts.Timeout,
	}
	if srv.gatherer == nil {
		srv.gatherer = prometheus.DefaultGatherer
	}
	if srv.maxBody <= 0 {
		srv.maxBody = DefaultMaxBodySize
	}
	if srv.timeout <= 0 {
		srv.timeout = 30 * time.Second
	}
	return srv
}

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.instrument)
		r.Get("/formats", s.formats)
		r.Post("/parse/{format}", s.parse)
		r.Post("/graph/{format}", s.graph)
		r.Post("/merge", s.merge)
		if s.store != nil {
			r.Get("/snapshots", s.listSnapshots)
			r.Get("/snapshots/{id}", s.getSnapshot)
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
