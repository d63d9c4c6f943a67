// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package server assembles the agentbridge HTTP surface: ingress middleware,
// the envelope adapter, probes, metrics and the downstream handler.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/agentbridge/internal/adapter"
	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/health"
	"github.com/ManuGH/agentbridge/internal/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// TracingService names the ingress tracer.
const TracingService = "agentbridge"

// Deps are the collaborators wired into the router.
type Deps struct {
	// Adapter translates invocation envelopes. Required.
	Adapter *adapter.Adapter
	// Downstream serves every translated and untranslated request. Required.
	Downstream http.Handler
	// Health serves /healthz and /readyz. Nil disables the probes.
	Health *health.Manager

	// Registerer receives ingress metrics, Gatherer backs /metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger *zerolog.Logger
}

// NewRouter builds the API router. The bridge's own probes and /metrics
// are served outside the adapter; every other path goes through it, so a
// translated invocation is always dispatched to the downstream handler,
// whatever apiPath it names.
func NewRouter(cfg config.Config, deps Deps) (http.Handler, error) {
	if deps.Adapter == nil {
		return nil, errors.New("server: adapter is required")
	}
	if deps.Downstream == nil {
		return nil, errors.New("server: downstream handler is required")
	}
	switch path := deps.Adapter.PassThroughPath(); path {
	case config.HealthPath, config.ReadyPath, config.MetricsPath:
		return nil, fmt.Errorf("server: pass-through path %q collides with a bridge route", path)
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  cfg.Metrics.Enabled,
		Registerer:     deps.Registerer,
		TracingService: TracingService,
		EnableLogging:  true,
		Logger:         deps.Logger,
	})

	if deps.Health != nil {
		r.Get(config.HealthPath, deps.Health.ServeHealth)
		r.Get(config.ReadyPath, deps.Health.ServeReady)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		r.Handle(config.MetricsPath, MetricsHandler(deps.Gatherer))
	}
	r.Group(func(r chi.Router) {
		r.Use(deps.Adapter.Middleware())
		r.Handle("/*", deps.Downstream)
	})

	return r, nil
}

// MetricsHandler exposes g in the Prometheus text format. A nil g serves the default gatherer.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewMetricsRouter serves /metrics on a dedicated listener.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle(config.MetricsPath, MetricsHandler(g))
	return r
}

// NewHTTPServer applies the configured timeouts and, when enabled, cleartext HTTP/2.
func NewHTTPServer(addr string, cfg config.Config, handler http.Handler) *http.Server {
	if cfg.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{
			IdleTimeout: cfg.Server.IdleTimeout,
		})
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}
}
