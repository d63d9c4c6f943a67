// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests chi could not route, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	reqSize  *prometheus.HistogramVec
	respSize *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	factory := promauto.With(reg)
	return &httpMetrics{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentbridge_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentbridge_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
		reqSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentbridge_http_request_size_bytes",
			Help:    "HTTP request sizes in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		}, []string{"method"}),
		respSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentbridge_http_response_size_bytes",
			Help:    "HTTP response sizes in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		}, []string{"method", "path", "status"}),
	}
}

// Metrics creates a middleware that records Prometheus metrics for HTTP requests
// on reg. A nil reg uses prometheus.DefaultRegisterer. Call it once per registry.
//
// Labels use the method and route pattern chi resolved for the inbound request.
func Metrics(reg prometheus.Registerer) func(http.Handler) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newHTTPMetrics(reg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.inFlight.Inc()
			defer m.inFlight.Dec()

			if r.ContentLength > 0 {
				m.reqSize.WithLabelValues(r.Method).Observe(float64(r.ContentLength))
			}

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			method, path := routeOf(r, unmatchedRoute)
			status := strconv.Itoa(sw.status)
			m.duration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			if sw.bytes > 0 {
				m.respSize.WithLabelValues(method, path, status).Observe(float64(sw.bytes))
			}
		})
	}
}
