// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package adapter translates action-group invocation envelopes into plain
// HTTP requests for a downstream handler and wraps the handler's response
// back into an invocation envelope.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/agentbridge/internal/envelope"
	applog "github.com/ManuGH/agentbridge/internal/log"
	"github.com/ManuGH/agentbridge/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultPassThroughPath is the path translated when none is configured.
	DefaultPassThroughPath = "/events"

	tracerName = "github.com/ManuGH/agentbridge/internal/adapter"
)

// Config configures an Adapter.
type Config struct {
	// PassThroughPath is the only path on which envelopes are translated.
	PassThroughPath string

	// MaxBodyBytes caps the inbound envelope size. Zero means unlimited.
	MaxBodyBytes int64

	// PreferredContentTypes resolves envelopes carrying several content types.
	PreferredContentTypes []string
}

// ResponseObserver receives every captured downstream response of a
// translated invocation. The body can be replayed through Captured.
type ResponseObserver func(ctx context.Context, resp *Captured)

// Option customizes an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used by the adapter.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// WithTracerProvider sets the tracer provider for translation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Adapter) { a.tracerProvider = tp }
}

// WithRegisterer registers the adapter metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Adapter) { a.registerer = reg }
}

// WithResponseObserver installs fn as response observer.
func WithResponseObserver(fn ResponseObserver) Option {
	return func(a *Adapter) { a.observer = fn }
}

// Adapter is the envelope translating middleware. It holds no per-request
// state and is safe for concurrent use.
type Adapter struct {
	path     string
	maxBody  int64
	resolver envelope.ContentTypeResolver

	logger         zerolog.Logger
	tracerProvider trace.TracerProvider
	registerer     prometheus.Registerer
	observer       ResponseObserver

	tracer  trace.Tracer
	metrics *metrics
}

// New creates an Adapter.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	path := cfg.PassThroughPath
	if path == "" {
		path = DefaultPassThroughPath
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("pass-through path %q must start with /", path)
	}
	if cfg.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("max body bytes must not be negative (got %d)", cfg.MaxBodyBytes)
	}

	a := &Adapter{
		path:     path,
		maxBody:  cfg.MaxBodyBytes,
		resolver: envelope.ContentTypeResolver{Preferred: cfg.PreferredContentTypes},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracerProvider == nil {
		a.tracerProvider = otel.GetTracerProvider()
	}
	a.tracer = a.tracerProvider.Tracer(tracerName)
	a.metrics = newMetrics(a.registerer)

	a.logger.Info().
		Str("event", "adapter.configured").
		Str("pass_through_path", a.path).
		Int64("max_body_bytes", a.maxBody).
		Strs("preferred_content_types", cfg.PreferredContentTypes).
		Msg("envelope adapter configured")

	return a, nil
}

// PassThroughPath returns the translated path.
func (a *Adapter) PassThroughPath() string {
	return a.path
}

// Middleware returns the adapter as chi-compatible middleware.
func (a *Adapter) Middleware() func(http.Handler) http.Handler {
	return a.Wrap
}

// Wrap returns a handler that translates invocations on the pass-through
// path and forwards every other request to next untouched.
func (a *Adapter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != a.path {
			a.metrics.invocations.WithLabelValues(OutcomePassThrough).Inc()
			next.ServeHTTP(w, r)
			return
		}
		a.translate(w, r, next)
	})
}

// translate runs decode -> synthesize -> dispatch -> capture -> render and
// maps any failure onto the public error responses.
func (a *Adapter) translate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx, span := a.tracer.Start(r.Context(), "envelope.translate", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	logger := applog.WithContext(ctx, a.logger)

	payload, err := a.run(ctx, w, r, next, &logger, span)
	if err != nil {
		a.fail(w, err, &logger, span)
		return
	}

	a.metrics.invocations.WithLabelValues(OutcomeOK).Inc()
	span.SetStatus(codes.Ok, "")
	writeJSON(w, http.StatusOK, payload)
}

func (a *Adapter) run(ctx context.Context, w http.ResponseWriter, r *http.Request, next http.Handler, logger *zerolog.Logger, span trace.Span) ([]byte, error) {
	req, err := a.decode(w, r)
	if err != nil {
		return nil, err
	}

	ctx = applog.ContextWithInvocation(ctx, applog.Invocation{
		ActionGroup: req.ActionGroup,
		APIPath:     req.APIPath,
		HTTPMethod:  req.HTTPMethod,
		SessionID:   req.SessionID,
		Agent:       req.Agent.Name,
	})
	*logger = applog.WithContext(ctx, a.logger)
	span.SetAttributes(telemetry.InvocationAttributes(
		req.ActionGroup, req.APIPath, req.HTTPMethod, req.Agent.Name, len(req.Parameters))...)
	logger.Debug().
		Str(applog.FieldEvent, "adapter.decoded").
		Str("message_version", req.MessageVersion).
		Str("input_text", req.InputText).
		Int("parameters", len(req.Parameters)).
		Bool("has_content", req.HasContent()).
		Msg("invocation envelope decoded")

	synth, err := a.synthesize(ctx, r, req)
	if err != nil {
		return nil, err
	}

	captured, err := a.dispatch(next, synth)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, captured.StatusCode))
	a.metrics.bodyBytes.Observe(float64(captured.Len()))
	logger.Debug().
		Str(applog.FieldEvent, "adapter.captured").
		Int(applog.FieldStatus, captured.StatusCode).
		Str("content_type", captured.ContentType()).
		Int("chunks", captured.ChunkCount()).
		Int("bytes", captured.Len()).
		Msg("downstream response captured")

	if a.observer != nil {
		a.observer(ctx, captured)
	}

	return render(req, captured)
}

// decode reads and validates the inbound envelope.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request) (*envelope.Request, error) {
	body := r.Body
	if body == nil {
		body = http.NoBody
	}
	if a.maxBody > 0 {
		body = http.MaxBytesReader(w, body, a.maxBody)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	return envelope.Decode(data)
}

// synthesize builds the downstream request: routing from apiPath and
// httpMethod, query from parameters and a JSON body from the properties.
func (a *Adapter) synthesize(ctx context.Context, r *http.Request, req *envelope.Request) (*http.Request, error) {
	out := r.Clone(ctx)
	out.Method = req.HTTPMethod
	out.URL.Path = req.APIPath
	out.URL.RawPath = ""
	out.URL.RawQuery = envelope.Flatten(req.Parameters).Query().Encode()
	out.RequestURI = out.URL.RequestURI()
	// The synthesized body always has a known length.
	out.TransferEncoding = nil

	if !req.HasContent() {
		out.Body = http.NoBody
		out.GetBody = nil
		out.ContentLength = 0
		out.Header.Del("Content-Type")
		out.Header.Del("Content-Length")
		return out, nil
	}

	contentType, err := a.resolver.Resolve(req.RequestBody.Content)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(envelope.Flatten(req.RequestBody.Content[contentType].Properties))
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.ContentLength = int64(len(data))
	out.Header.Set("Content-Type", "application/json")
	out.Header.Set("Content-Length", strconv.Itoa(len(data)))
	return out, nil
}

// dispatch runs the downstream handler against a recorder and returns the
// fully buffered response. A panic in next is returned as *PanicError.
func (a *Adapter) dispatch(next http.Handler, req *http.Request) (captured *Captured, err error) {
	rec := newRecorder()
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			captured = nil
			err = &PanicError{Value: p, Stack: debug.Stack()}
			a.metrics.dispatchDuration.WithLabelValues("panic").Observe(time.Since(start).Seconds())
		}
	}()

	next.ServeHTTP(rec, req)

	if ctxErr := req.Context().Err(); ctxErr != nil {
		return nil, fmt.Errorf("dispatch %s %s: %w", req.Method, req.URL.Path, ctxErr)
	}

	captured = rec.captured()
	a.metrics.dispatchDuration.WithLabelValues(strconv.Itoa(captured.StatusCode)).Observe(time.Since(start).Seconds())
	return captured, nil
}

// render wraps the captured response into the outbound envelope.
func render(req *envelope.Request, captured *Captured) ([]byte, error) {
	contentType := captured.ContentType()
	text, err := bodyText(captured.Bytes(), contentType)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(envelope.NewResponse(req, captured.StatusCode, contentType, text))
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func (a *Adapter) fail(w http.ResponseWriter, err error, logger *zerolog.Logger, span trace.Span) {
	e := classify(err)
	a.metrics.invocations.WithLabelValues(e.Outcome).Inc()
	span.RecordError(err)
	span.SetAttributes(telemetry.ErrorAttributes(err, e.Outcome)...)

	if e.Status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, e.Message)
		ev := logger.Error().Err(err).Str(applog.FieldEvent, "adapter.failed").Str(applog.FieldOutcome, e.Outcome)
		var p *PanicError
		if errors.As(err, &p) {
			ev = ev.Str("stack_trace", string(p.Stack))
		}
		ev.Msg("envelope translation failed")
	} else {
		logger.Warn().Err(err).Str(applog.FieldEvent, "adapter.rejected").Str(applog.FieldOutcome, e.Outcome).Msg("invocation envelope rejected")
	}

	data, _ := json.Marshal(envelope.ErrorBody{Error: e.Message})
	writeJSON(w, e.Status, data)
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
