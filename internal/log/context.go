// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	invocationKey
)

// Invocation identifies the action-group invocation a request was synthesized
// from. Handlers behind the envelope adapter see it in their request context.
type Invocation struct {
	ActionGroup string
	APIPath     string
	HTTPMethod  string
	SessionID   string
	Agent       string
}

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithInvocation stores inv in the context.
func ContextWithInvocation(ctx context.Context, inv Invocation) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, invocationKey, inv)
}

// InvocationFromContext returns the invocation stored in ctx, if any.
func InvocationFromContext(ctx context.Context) (Invocation, bool) {
	if ctx == nil {
		return Invocation{}, false
	}
	inv, ok := ctx.Value(invocationKey).(Invocation)
	return inv, ok
}

// WithContext enriches the supplied logger with the request ID, the
// invocation fields and the active trace and span IDs found in ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	rid := RequestIDFromContext(ctx)
	inv, hasInv := InvocationFromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if rid == "" && !hasInv && !sc.IsValid() {
		return logger
	}

	builder := logger.With()
	if rid != "" {
		builder = builder.Str(FieldRequestID, rid)
	}
	if hasInv {
		builder = builder.
			Str(FieldActionGroup, inv.ActionGroup).
			Str(FieldAPIPath, inv.APIPath).
			Str(FieldHTTPMethod, inv.HTTPMethod)
		if inv.SessionID != "" {
			builder = builder.Str(FieldSessionID, inv.SessionID)
		}
		if inv.Agent != "" {
			builder = builder.Str(FieldAgent, inv.Agent)
		}
	}
	if sc.IsValid() {
		builder = builder.
			Str(FieldTraceID, sc.TraceID().String()).
			Str(FieldSpanID, sc.SpanID().String())
	}
	return builder.Logger()
}

// WithComponentFromContext returns a component logger carrying the request
// fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := WithContext(ctx, *FromContext(ctx))
	return l.With().Str(FieldComponent, component).Logger()
}

// FromContext returns the logger attached with zerolog's WithContext, or the
// base logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Base()
		return &l
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		b := Base()
		return &b
	}
	return l
}
