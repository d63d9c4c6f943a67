// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adapter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	invocations      *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	bodyBytes        prometheus.Histogram
}

// newMetrics registers the adapter collectors on reg. A nil reg creates
// unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentbridge_invocations_total",
			Help: "Requests seen by the envelope adapter, by outcome",
		}, []string{"outcome"}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentbridge_dispatch_duration_seconds",
			Help:    "Time spent in the downstream handler for translated invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		bodyBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentbridge_downstream_body_bytes",
			Help:    "Size of buffered downstream response bodies",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		}),
	}
}
