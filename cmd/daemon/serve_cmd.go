// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/daemon"
	applog "github.com/ManuGH/agentbridge/internal/log"
	"github.com/ManuGH/agentbridge/internal/version"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Safe defaults until the configuration is loaded.
			applog.Configure(applog.Config{
				Level:   "info",
				Output:  cmd.ErrOrStderr(),
				Service: "agentbridge",
				Version: version.Version,
			})

			cfg, err := config.NewLoader(configPath).Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			applog.Configure(applog.Config{
				Level:   cfg.Log.Level,
				Output:  cmd.ErrOrStderr(),
				Service: cfg.Log.Service,
				Version: version.Version,
			})
			logger := applog.WithComponent("daemon")
			logger.Info().
				Str("config", configPath).
				Str("upstream", maskURL(cfg.UpstreamURL)).
				Str("commit", version.Commit).
				Msg("configuration loaded")

			ctx, stop := daemon.WaitForShutdown(cmdContext(cmd))
			defer stop()

			return daemon.Run(ctx, cfg, daemon.Options{Version: version.Version})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
