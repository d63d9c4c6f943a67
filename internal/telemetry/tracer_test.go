// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewProvider_Disabled(t *testing.T) {
	restoreGlobals(t)

	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: "grpc",
	})
	require.NoError(t, err)
	assert.False(t, provider.Enabled())

	_, span := Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording(), "disabled provider must hand out non-recording spans")
	span.End()

	_, span = provider.TracerProvider().Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	restoreGlobals(t)

	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "invalid",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "unsupported exporter type: invalid (supported: grpc, http)")
}

func TestNewProvider_Exporters(t *testing.T) {
	for _, exporter := range []string{"grpc", "http"} {
		t.Run(exporter, func(t *testing.T) {
			restoreGlobals(t)

			provider, err := NewProvider(context.Background(), Config{
				Enabled:        true,
				ServiceName:    "agentbridge",
				ServiceVersion: "test",
				Environment:    "test",
				ExporterType:   exporter,
				Endpoint:       "127.0.0.1:1",
				SamplingRate:   1.0,
			})
			require.NoError(t, err)
			assert.True(t, provider.Enabled())

			_, span := Tracer("test").Start(context.Background(), "recording-check")
			assert.True(t, span.IsRecording())
			span.End()

			// The collector is unreachable; shutdown still returns within its deadline.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = provider.Shutdown(ctx)
		})
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate     float64
		decision sdktrace.SamplingDecision
	}{
		{rate: 1.0, decision: sdktrace.RecordAndSample},
		{rate: 2.0, decision: sdktrace.RecordAndSample},
		{rate: 0.0, decision: sdktrace.Drop},
		{rate: -1.0, decision: sdktrace.Drop},
	}
	for _, tt := range tests {
		res := Sampler(tt.rate).ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       trace.TraceID{0x01},
			Name:          "span",
		})
		assert.Equal(t, tt.decision, res.Decision, "rate %v", tt.rate)
	}
}

func TestSampler_FollowsSampledParent(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	res := Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: ctx,
		TraceID:       parent.TraceID(),
		Name:          "child",
	})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}
