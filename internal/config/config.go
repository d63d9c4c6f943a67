// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "AGENTBRIDGE_"

// Config is the complete daemon configuration.
type Config struct {
	// ListenAddr is the API listen address (e.g. ":8080").
	ListenAddr string `yaml:"listenAddr" env:"LISTEN_ADDR"`

	// PassThroughPath is the only path on which invocation envelopes are translated.
	PassThroughPath string `yaml:"passThroughPath" env:"PASS_THROUGH_PATH"`

	// UpstreamURL is the REST API receiving the translated requests.
	UpstreamURL string `yaml:"upstreamURL" env:"UPSTREAM_URL"`

	// MaxBodyBytes caps inbound envelopes. 0 disables the limit.
	MaxBodyBytes int64 `yaml:"maxBodyBytes" env:"MAX_BODY_BYTES"`

	// PreferredContentTypes picks the body when an envelope carries several content types.
	PreferredContentTypes []string `yaml:"preferredContentTypes,omitempty" env:"PREFERRED_CONTENT_TYPES" envSeparator:","`

	// H2C enables cleartext HTTP/2 on the API listener.
	H2C bool `yaml:"h2c" env:"H2C"`

	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// ServerConfig holds HTTP server timeouts and limits.
type ServerConfig struct {
	ReadTimeout       time.Duration `yaml:"readTimeout" env:"READ_TIMEOUT"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" env:"READ_HEADER_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idleTimeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes    int           `yaml:"maxHeaderBytes" env:"MAX_HEADER_BYTES"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string `yaml:"level" env:"LEVEL"`
	Service string `yaml:"service" env:"SERVICE"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// ListenAddr serves /metrics on a dedicated listener. Empty serves it on the API router.
	ListenAddr string `yaml:"listenAddr" env:"LISTEN_ADDR"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	Exporter     string  `yaml:"exporter" env:"EXPORTER"`
	Endpoint     string  `yaml:"endpoint" env:"ENDPOINT"`
	SamplingRate float64 `yaml:"samplingRate" env:"SAMPLING_RATE"`
	Environment  string  `yaml:"environment" env:"ENVIRONMENT"`
}

// Default values.
const (
	DefaultListenAddr      = ":8080"
	DefaultPassThroughPath = "/events"
	DefaultUpstreamURL     = "http://127.0.0.1:8000"
	DefaultMaxBodyBytes    = 10 << 20
)

// Paths served by the bridge itself. They cannot be the pass-through path.
const (
	HealthPath  = "/healthz"
	ReadyPath   = "/readyz"
	MetricsPath = "/metrics"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      DefaultListenAddr,
		PassThroughPath: DefaultPassThroughPath,
		UpstreamURL:     DefaultUpstreamURL,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		Server: ServerConfig{
			ReadTimeout:       60 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      0, // bounded by the upstream, not the listener
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "agentbridge",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
