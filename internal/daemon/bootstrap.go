// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/agentbridge/internal/adapter"
	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/health"
	"github.com/ManuGH/agentbridge/internal/log"
	"github.com/ManuGH/agentbridge/internal/server"
	"github.com/ManuGH/agentbridge/internal/telemetry"
	"github.com/ManuGH/agentbridge/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options customize Bootstrap.
type Options struct {
	// Version is the build version reported by probes and telemetry.
	Version string

	// Registry receives all metrics. Nil creates a fresh registry with
	// Go runtime and process collectors.
	Registry *prometheus.Registry

	// Downstream replaces the upstream reverse proxy.
	Downstream http.Handler
}

// Bootstrap wires telemetry, metrics, the envelope adapter, the upstream
// proxy and the HTTP surface into a Manager ready to Start.
func Bootstrap(ctx context.Context, cfg config.Config, opts Options) (Manager, error) {
	logger := log.WithComponent("daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: opts.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
		if provider, err = telemetry.NewProvider(ctx, telemetry.Config{}); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	} else if provider.Enabled() {
		logger.Info().
			Str("exporter", cfg.Telemetry.Exporter).
			Str("endpoint", cfg.Telemetry.Endpoint).
			Float64("sampling_rate", cfg.Telemetry.SamplingRate).
			Msg("telemetry initialized")
	}
	tp := provider.TracerProvider()

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	healthMgr := health.NewManager(opts.Version)

	downstream := opts.Downstream
	if downstream == nil {
		target, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("upstream URL: %w", err)
		}
		proxy, err := upstream.New(target, log.WithComponent("upstream"),
			upstream.WithRegisterer(reg),
			upstream.WithTracerProvider(tp),
		)
		if err != nil {
			return nil, err
		}
		healthMgr.RegisterChecker(upstream.NewChecker(target))
		downstream = proxy
	}

	bridge, err := adapter.New(adapter.Config{
		PassThroughPath:       cfg.PassThroughPath,
		MaxBodyBytes:          cfg.MaxBodyBytes,
		PreferredContentTypes: cfg.PreferredContentTypes,
	},
		adapter.WithLogger(log.WithComponent("adapter")),
		adapter.WithTracerProvider(tp),
		adapter.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("envelope adapter: %w", err)
	}

	httpLogger := log.WithComponent("http")
	handler, err := server.NewRouter(cfg, server.Deps{
		Adapter:    bridge,
		Downstream: downstream,
		Health:     healthMgr,
		Registerer: reg,
		Gatherer:   reg,
		Logger:     &httpLogger,
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Logger:     logger,
		APIHandler: handler,
		Health:     healthMgr,
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		deps.MetricsHandler = server.NewMetricsRouter(reg)
	}

	mgr, err := NewManager(cfg, deps)
	if err != nil {
		return nil, err
	}
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	return mgr, nil
}

// WaitForShutdown returns a context cancelled on interrupt or termination signals.
func WaitForShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
