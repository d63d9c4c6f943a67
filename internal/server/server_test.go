// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ManuGH/agentbridge/internal/adapter"
	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/envelope"
	"github.com/ManuGH/agentbridge/internal/health"
	"github.com/ManuGH/agentbridge/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

// echo reports what it received as JSON.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"method": r.Method,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
		"body":   string(body),
	})
})

func newTestRouter(t *testing.T, cfg config.Config, downstream http.Handler) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	a, err := adapter.New(adapter.Config{
		PassThroughPath: cfg.PassThroughPath,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}, adapter.WithRegisterer(reg))
	require.NoError(t, err)

	h, err := NewRouter(cfg, Deps{
		Adapter:    a,
		Downstream: downstream,
		Health:     health.NewManager("test"),
		Registerer: reg,
		Gatherer:   reg,
	})
	require.NoError(t, err)
	return h, reg
}

func TestRouter_TranslatesInvocation(t *testing.T) {
	h, _ := newTestRouter(t, config.Default(), echo)

	body := `{
		"actionGroup": "orders",
		"apiPath": "/orders/42",
		"httpMethod": "PATCH",
		"parameters": [{"name": "notify", "type": "boolean", "value": true}],
		"requestBody": {"content": {"application/json": {"properties": [{"name": "qty", "type": "integer", "value": 3}]}}},
		"sessionAttributes": {"s": "1"},
		"promptSessionAttributes": {}
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	var resp envelope.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "orders", resp.Response.ActionGroup)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.JSONEq(t, `{"s":"1"}`, string(resp.Response.SessionAttributes))

	var seen map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Response.ResponseBody["application/json"].Body), &seen))
	assert.Equal(t, map[string]string{
		"method": http.MethodPatch,
		"path":   "/orders/42",
		"query":  "notify=true",
		"body":   `{"qty":3}`,
	}, seen)
}

func TestRouter_InvocationsAlwaysReachDownstream(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.ListenAddr = ""

	var calls atomic.Int32
	downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		echo(w, r)
	})
	h, _ := newTestRouter(t, cfg, downstream)

	for _, apiPath := range []string{config.HealthPath, config.ReadyPath, config.MetricsPath, "/orders"} {
		t.Run(apiPath, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(fmt.Sprintf(`{
				"actionGroup": "ops", "apiPath": %q, "httpMethod": "GET",
				"sessionAttributes": {}, "promptSessionAttributes": {}
			}`, apiPath)))
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp envelope.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Contains(t, resp.Response.ResponseBody, "application/json")

			var seen map[string]string
			require.NoError(t, json.Unmarshal([]byte(resp.Response.ResponseBody["application/json"].Body), &seen))
			assert.Equal(t, apiPath, seen["path"])
			assert.Equal(t, http.MethodGet, seen["method"])
		})
	}
	assert.Equal(t, int32(4), calls.Load())

	// Direct requests still hit the bridge's own routes.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, config.HealthPath, nil))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Equal(t, int32(4), calls.Load())
}

func TestRouter_PassThrough(t *testing.T) {
	h, _ := newTestRouter(t, config.Default(), echo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/7?force=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"method":"DELETE","path":"/orders/7","query":"force=1","body":""}`, rec.Body.String())
}

func TestRouter_InvalidEnvelope(t *testing.T) {
	h, _ := newTestRouter(t, config.Default(), echo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, adapter.MessageInvalidRequestBody), rec.Body.String())
}

func TestRouter_Probes(t *testing.T) {
	h, _ := newTestRouter(t, config.Default(), echo)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t, config.Default(), echo)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agentbridge_invocations_total{outcome="pass_through"}`)
	assert.Contains(t, rec.Body.String(), "agentbridge_http_request_duration_seconds")
}

func TestRouter_MetricsOnDedicatedListener(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.ListenAddr = ":9100"
	h, reg := newTestRouter(t, cfg, echo)

	// /metrics now belongs to the downstream.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.JSONEq(t, `{"method":"GET","path":"/metrics","query":"","body":""}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewMetricsRouter(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentbridge_invocations_total")
}

func TestNewRouter_RequiresDeps(t *testing.T) {
	_, err := NewRouter(config.Default(), Deps{Downstream: echo})
	assert.Error(t, err)

	a, err := adapter.New(adapter.Config{}, adapter.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	_, err = NewRouter(config.Default(), Deps{Adapter: a})
	assert.Error(t, err)
}

func TestNewRouter_RejectsReservedPassThroughPath(t *testing.T) {
	a, err := adapter.New(adapter.Config{PassThroughPath: config.ReadyPath},
		adapter.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)

	_, err = NewRouter(config.Default(), Deps{Adapter: a, Downstream: echo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ReadyPath)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Default()
	srv := NewHTTPServer(":0", cfg, echo)
	assert.Equal(t, cfg.Server.ReadHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, cfg.Server.IdleTimeout, srv.IdleTimeout)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, srv.MaxHeaderBytes)
}

func TestNewHTTPServer_H2C(t *testing.T) {
	cfg := config.Default()
	cfg.H2C = true

	ts := httptest.NewUnstartedServer(nil)
	ts.Config = NewHTTPServer("", cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto)
	}))
	ts.Start()
	defer ts.Close()

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/2.0", string(body))
}
