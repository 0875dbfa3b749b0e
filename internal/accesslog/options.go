package accesslog

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a Filter.
type Option func(*config)

type config struct {
	clock     clockwork.Clock
	logger    zerolog.Logger
	metrics   *Metrics
	portMode  LocalPortStrategy
	forwarded bool
	tee       TeeConfig
	hostname  string
}

func defaultConfig() *config {
	return &config{
		clock:    clockwork.NewRealClock(),
		logger:   log.Logger,
		portMode: PortServer,
		hostname: localHostname(),
	}
}

// WithClock sets the clock used for timestamps and elapsed time.
func WithClock(clock clockwork.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the logger for emission diagnostics. Defaults to the
// global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics counts suppressed exchanges and failed emissions.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithLocalPortStrategy selects what LocalPort reports.
func WithLocalPortStrategy(s LocalPortStrategy) Option {
	return func(c *config) {
		c.portMode = s
	}
}

// WithForwardHeaders trusts X-Forwarded-* headers for the remote address,
// server name and port. Only enable behind a proxy that sets them.
func WithForwardHeaders(enabled bool) Option {
	return func(c *config) {
		c.forwarded = enabled
	}
}

// WithTee copies request and response bodies into events when the tee is
// active on this host.
func WithTee(tee TeeConfig) Option {
	return func(c *config) {
		c.tee = tee
	}
}

// withHostname overrides the host name used for tee includes/excludes.
func withHostname(name string) Option {
	return func(c *config) {
		c.hostname = name
	}
}
