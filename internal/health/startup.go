// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates runtime-critical settings before the server starts.
func PerformStartupChecks(cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListenAddr(logger, "api", cfg.ListenAddr); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		if err := checkListenAddr(logger, "metrics", cfg.Metrics.ListenAddr); err != nil {
			return err
		}
	}

	u, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream URL scheme must be http or https, got: %s", u.Scheme)
	}
	logger.Info().Str("url", u.Redacted()).Msg("upstream URL is valid")

	if cfg.MaxBodyBytes == 0 {
		logger.Warn().Msg("envelope body size is unlimited")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, name, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s listen address %q: %w", name, addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid %s listen port %q in %q", name, port, addr)
	}
	logger.Info().Str("addr", addr).Str("listener", name).Msg("listen address is valid")
	return nil
}
