// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"

	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/health"
	"github.com/ManuGH/agentbridge/internal/log"
)

// Run performs the startup checks, bootstraps the daemon and serves until
// ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg config.Config, opts Options) error {
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(cfg); err != nil {
		return err
	}

	mgr, err := Bootstrap(ctx, cfg, opts)
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", opts.Version).
		Str("pass_through_path", cfg.PassThroughPath).
		Str("upstream", cfg.UpstreamURL).
		Msg("starting agentbridge")

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	logger.Info().Msg("agentbridge stopped")
	return nil
}
