// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks cfg and reports every problem at once.
func Validate(cfg Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.ListenAddr == "" {
		add("listenAddr must not be empty")
	}
	if !strings.HasPrefix(cfg.PassThroughPath, "/") {
		add("passThroughPath %q must start with /", cfg.PassThroughPath)
	}
	switch cfg.PassThroughPath {
	case HealthPath, ReadyPath, MetricsPath:
		add("passThroughPath %q is reserved by the bridge", cfg.PassThroughPath)
	}
	if err := validateUpstream(cfg.UpstreamURL); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxBodyBytes < 0 {
		add("maxBodyBytes must not be negative (got %d)", cfg.MaxBodyBytes)
	}

	if cfg.Server.ReadTimeout < 0 || cfg.Server.ReadHeaderTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.IdleTimeout < 0 {
		add("server timeouts must not be negative")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		add("server.shutdownTimeout must be positive (got %s)", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxHeaderBytes < 0 {
		add("server.maxHeaderBytes must not be negative (got %d)", cfg.Server.MaxHeaderBytes)
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			add("log.level %q is not a valid level", cfg.Log.Level)
		}
	}

	if cfg.Metrics.ListenAddr != "" && cfg.Metrics.ListenAddr == cfg.ListenAddr {
		add("metrics.listenAddr must differ from listenAddr")
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q is not supported (supported: grpc, http)", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint must be set when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate must be within [0, 1] (got %g)", cfg.Telemetry.SamplingRate)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func validateUpstream(raw string) error {
	if raw == "" {
		return fmt.Errorf("upstreamURL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("upstreamURL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstreamURL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("upstreamURL %q has no host", raw)
	}
	return nil
}
