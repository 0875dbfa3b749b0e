// Package server provides HTTP server setup, routing, and middleware.
package server

import (
	"github.com/rs/zerolog/log"

	"accesslogd/internal/accesslog"
	"accesslogd/internal/config"
)

// newAccessFilter builds the access log filter from the environment settings.
func newAccessFilter(cfg config.AccessLog, backend accesslog.Backend, m *accesslog.Metrics) (*accesslog.Filter, error) {
	strategy, err := accesslog.ParseLocalPortStrategy(cfg.LocalPortStrategy)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("local_port_strategy", strategy.String()).
		Bool("forward_headers", cfg.ForwardHeaders).
		Bool("tee", cfg.TeeEnabled).
		Msg("Configuring access log filter")

	return accesslog.NewFilter(backend,
		accesslog.WithLogger(log.Logger),
		accesslog.WithMetrics(m),
		accesslog.WithLocalPortStrategy(strategy),
		accesslog.WithForwardHeaders(cfg.ForwardHeaders),
		accesslog.WithTee(accesslog.TeeConfig{
			Enabled:  cfg.TeeEnabled,
			Includes: cfg.TeeIncludes,
			Excludes: cfg.TeeExcludes,
		}),
	), nil
}
