// Access log demo server
//
// This is the main entry point for the demo server. It serves the mock
// endpoints behind the access log filter and emits one access event per
// request to the appenders declared in the access log config file.
//
// Usage:
//
//	LISTEN_ADDR=:8080 ACCESSLOG_CONFIG=accesslog.yaml go run ./cmd/api
//
// Environment Variables:
//   - LISTEN_ADDR: Address to listen on (default: ":8080")
//   - LOG_LEVEL: zerolog level (default: "info")
//   - METRICS_ENABLED: Serve /metrics (default: true)
//   - PPROF_ENABLED: Serve /debug/pprof/ (default: false)
//   - ACCESSLOG_ENABLED: Install the access log filter (default: true)
//   - ACCESSLOG_CONFIG: Appender/filter YAML file (default: auto-detected)
//   - ACCESSLOG_LOCAL_PORT_STRATEGY: "server" or "local" (default: "server")
//   - ACCESSLOG_FORWARD_HEADERS: Trust X-Forwarded-* headers (default: false)
//   - ACCESSLOG_TEE_ENABLED: Capture request/response bodies (default: false)
//   - ACCESSLOG_TEE_INCLUDES, ACCESSLOG_TEE_EXCLUDES: Comma-separated host names
//
// Flags override the environment.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"accesslogd/internal/config"
	"accesslogd/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Serve the mock endpoints behind the access log filter",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.LogLevel)

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			return srv.ListenAndServe()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "address to listen on")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.BoolVar(&cfg.MetricsEnabled, "metrics", cfg.MetricsEnabled, "serve /metrics")
	flags.BoolVar(&cfg.EnablePprof, "pprof", cfg.EnablePprof, "serve /debug/pprof/")
	flags.BoolVar(&cfg.AccessLog.Enabled, "access-log", cfg.AccessLog.Enabled, "install the access log filter")
	flags.StringVarP(&cfg.AccessLog.ConfigFile, "config", "c", cfg.AccessLog.ConfigFile, "access log config file")
	flags.StringVar(&cfg.AccessLog.LocalPortStrategy, "local-port-strategy", cfg.AccessLog.LocalPortStrategy, `"server" or "local"`)
	flags.BoolVar(&cfg.AccessLog.ForwardHeaders, "forward-headers", cfg.AccessLog.ForwardHeaders, "trust X-Forwarded-* headers")
	flags.BoolVar(&cfg.AccessLog.TeeEnabled, "tee", cfg.AccessLog.TeeEnabled, "capture request and response bodies")

	return cmd
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("log_level", level).Msg("Unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
