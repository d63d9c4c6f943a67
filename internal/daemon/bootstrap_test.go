// SPDX-License-Identifier: MIT
package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/agentbridge/internal/envelope"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBootstrap_ServesThroughUpstream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.Method + " " + r.URL.RequestURI()))
	}))
	defer backend.Close()

	cfg := testConfig(t)
	cfg.UpstreamURL = backend.URL

	mgr, err := Bootstrap(context.Background(), cfg, Options{
		Version:  "test",
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()
	require.NoError(t, waitForListen(cfg.ListenAddr, 2*time.Second))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Post("http://"+cfg.ListenAddr+"/events", "application/json", strings.NewReader(`{
		"actionGroup": "weather", "apiPath": "/forecast", "httpMethod": "GET",
		"parameters": [{"name": "city", "type": "string", "value": "Oslo"}],
		"sessionAttributes": {}, "promptSessionAttributes": {}
	}`))
	require.NoError(t, err)
	var out envelope.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, out.Response.HTTPStatusCode)
	assert.Equal(t, "GET /forecast?city=Oslo", out.Response.ResponseBody["text/plain"].Body)

	status, _ := get(t, "http://"+cfg.ListenAddr+"/readyz")
	assert.Equal(t, http.StatusOK, status, "upstream is reachable")

	status, body := get(t, "http://"+cfg.ListenAddr+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `agentbridge_invocations_total{outcome="ok"} 1`)

	client.CloseIdleConnections()
	cancel()
	require.NoError(t, <-errChan)
}

func TestBootstrap_TelemetryFailureFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Exporter = "zipkin"

	mgr, err := Bootstrap(context.Background(), cfg, Options{
		Registry:   prometheus.NewRegistry(),
		Downstream: http.NotFoundHandler(),
	})
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestRun_StartupChecksFail(t *testing.T) {
	cfg := testConfig(t)
	cfg.ListenAddr = "no-port"
	err := Run(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	assert.ErrorContains(t, err, "invalid api listen address")
}
