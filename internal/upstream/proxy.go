// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upstream forwards translated requests to the REST API behind the bridge.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	applog "github.com/ManuGH/agentbridge/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Proxy.
type Option func(*Proxy)

// WithTransport replaces the base transport. It is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) { p.base = rt }
}

// WithRegisterer records upstream failures on reg instead of the default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Proxy) { p.reg = reg }
}

// WithTracerProvider sets the provider used for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Proxy) { p.tp = tp }
}

// Proxy is an http.Handler forwarding every request to a single target.
type Proxy struct {
	target *url.URL
	logger zerolog.Logger
	base   http.RoundTripper
	reg    prometheus.Registerer
	tp     trace.TracerProvider

	rp     *httputil.ReverseProxy
	errors *prometheus.CounterVec
}

// New creates a reverse proxy to target.
func New(target *url.URL, logger zerolog.Logger, opts ...Option) (*Proxy, error) {
	if target == nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream target must be an absolute URL")
	}

	p := &Proxy{
		target: target,
		logger: logger.With().Str(applog.FieldComponent, "upstream").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.base == nil {
		p.base = defaultTransport()
	}
	if p.reg == nil {
		p.reg = prometheus.DefaultRegisterer
	}
	if p.tp == nil {
		p.tp = otel.GetTracerProvider()
	}

	p.errors = promauto.With(p.reg).NewCounterVec(prometheus.CounterOpts{
		Name: "agentbridge_upstream_errors_total",
		Help: "Requests the upstream could not answer, by reason",
	}, []string{"reason"})

	p.rp = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:     otelhttp.NewTransport(p.base, otelhttp.WithTracerProvider(p.tp)),
		FlushInterval: -1,
		ErrorHandler:  p.handleError,
	}
	return p, nil
}

// ServeHTTP forwards r to the upstream.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reason := "transport"
	switch {
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	}
	p.errors.WithLabelValues(reason).Inc()

	logger := applog.WithContext(r.Context(), p.logger)
	logger.Error().
		Err(err).
		Str(applog.FieldEvent, "upstream.error").
		Str(applog.FieldMethod, r.Method).
		Str(applog.FieldPath, r.URL.Path).
		Str("upstream", p.target.Redacted()).
		Str("reason", reason).
		Msg("upstream request failed")

	data, _ := json.Marshal(map[string]string{"error": http.StatusText(http.StatusBadGateway)})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write(data)
}

func defaultTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.MaxIdleConnsPerHost = 32
	t.ResponseHeaderTimeout = 60 * time.Second
	return t
}
