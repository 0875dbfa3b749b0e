// Package config handles configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// ListenAddr is the address:port the server listens on.
	ListenAddr string

	// LogLevel is the zerolog level for application diagnostics.
	LogLevel string

	// MetricsEnabled mounts the Prometheus handler at /metrics.
	MetricsEnabled bool

	// EnablePprof mounts the net/http/pprof handlers under /debug/pprof/.
	EnablePprof bool

	AccessLog AccessLog
}

// AccessLog holds the access log settings.
type AccessLog struct {
	// Enabled installs the access log filter.
	Enabled bool

	// ConfigFile is the appender/filter YAML file. Auto-detected when empty.
	ConfigFile string

	// LocalPortStrategy is "server" or "local".
	LocalPortStrategy string

	// ForwardHeaders trusts X-Forwarded-* request headers.
	ForwardHeaders bool

	// Tee copies request and response bodies into events.
	TeeEnabled  bool
	TeeIncludes string
	TeeExcludes string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		EnablePprof:    getEnvBool("PPROF_ENABLED", false),
		AccessLog: AccessLog{
			Enabled:           getEnvBool("ACCESSLOG_ENABLED", true),
			ConfigFile:        getEnv("ACCESSLOG_CONFIG", ""),
			LocalPortStrategy: getEnv("ACCESSLOG_LOCAL_PORT_STRATEGY", "server"),
			ForwardHeaders:    getEnvBool("ACCESSLOG_FORWARD_HEADERS", false),
			TeeEnabled:        getEnvBool("ACCESSLOG_TEE_ENABLED", false),
			TeeIncludes:       getEnv("ACCESSLOG_TEE_INCLUDES", ""),
			TeeExcludes:       getEnv("ACCESSLOG_TEE_EXCLUDES", ""),
		},
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable. Unparsable values fall
// back to the default.
func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
