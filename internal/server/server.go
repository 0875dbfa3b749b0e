// Package server provides HTTP server setup, routing, and middleware.
package server

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"accesslogd/internal/accesslog"
	"accesslogd/internal/config"
	"accesslogd/internal/logconfig"
	"accesslogd/internal/mock"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	cfg      *config.Config
	router   *http.ServeMux
	registry *prometheus.Registry
	metrics  *accesslog.Metrics
	refs     map[string]accesslog.Appender
	backend  accesslog.Backend
	closer   func() error
}

// Option customizes a Server.
type Option func(*Server)

// WithAppender supplies an appender for "ref" entries of the access log
// config file, matched by name. The caller keeps ownership of it.
func WithAppender(a accesslog.Appender) Option {
	return func(s *Server) {
		s.refs[a.Name()] = a
	}
}

// New creates a new Server with all routes configured.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		router:   http.NewServeMux(),
		registry: prometheus.NewRegistry(),
		refs:     make(map[string]accesslog.Appender),
		closer:   func() error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := accesslog.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}
	s.metrics = m

	if cfg.AccessLog.Enabled {
		ctx, err := logconfig.Load(cfg.AccessLog.ConfigFile, logconfig.Options{
			Logger:  log.Logger,
			Metrics: s.metrics,
			Refs:    s.refs,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("config", ctx.Name()).Msg("Access log context initialized")
		s.backend = ctx
		s.closer = ctx.Close
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /test/text", mock.HandleText)

	s.router.HandleFunc("GET /mock-controller/text", mock.HandleText)
	s.router.HandleFunc("POST /mock-controller/text", mock.HandleText)
	s.router.HandleFunc("GET /mock-controller/empty-text", mock.HandleEmptyText)
	s.router.HandleFunc("GET /mock-controller/text-with-response-headers", mock.HandleTextWithResponseHeaders)
	s.router.HandleFunc("GET /mock-controller/text-asynchronously", mock.HandleTextAsynchronously)
	s.router.HandleFunc("GET /mock-controller/text-with-chunked-transfer-encoding", mock.HandleTextChunked)
	s.router.HandleFunc("POST /mock-controller/form-data", mock.HandleFormData)
	s.router.HandleFunc("GET /mock-controller/error", mock.HandleError)
	s.router.HandleFunc("GET /mock-controller/panic", mock.HandlePanic)

	if s.cfg.MetricsEnabled {
		log.Info().Msg("Metrics enabled")
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	if s.cfg.EnablePprof {
		log.Info().Msg("Pprof enabled")
		s.router.HandleFunc("/debug/pprof/", pprof.Index)
		s.router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		s.router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		s.router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		s.router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() (http.Handler, error) {
	if !s.cfg.AccessLog.Enabled {
		return s.router, nil
	}
	f, err := newAccessFilter(s.cfg.AccessLog, s.backend, s.metrics)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Access logging enabled")
	return f.Wrap(s.router), nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	log.Info().
		Str("listen_addr", s.cfg.ListenAddr).
		Bool("access_log", s.cfg.AccessLog.Enabled).
		Msg("Starting server")

	return http.ListenAndServe(s.cfg.ListenAddr, h)
}

// Close releases the access log backend built by New.
func (s *Server) Close() error {
	return s.closer()
}
