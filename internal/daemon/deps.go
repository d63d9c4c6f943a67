// SPDX-License-Identifier: MIT

package daemon

import (
	"errors"
	"net/http"

	"github.com/ManuGH/agentbridge/internal/health"
	"github.com/rs/zerolog"
)

var (
	ErrMissingLogger     = errors.New("daemon: logger is required")
	ErrMissingAPIHandler = errors.New("daemon: bridge handler is required")
	ErrManagerNotStarted = errors.New("daemon: manager not started")
	ErrServerStartFailed = errors.New("daemon: listener failed to start")
)

// Deps is what the Manager serves and drains.
type Deps struct {
	Logger zerolog.Logger

	// APIHandler is the bridge router: adapter, probes and the upstream proxy.
	APIHandler http.Handler

	// MetricsHandler backs the dedicated metrics listener. The listener is
	// skipped when this is nil or metrics.listenAddr is empty.
	MetricsHandler http.Handler

	// Health, when set, reports draining as soon as shutdown begins.
	Health *health.Manager
}

// Validate reports the first missing required dependency.
func (d *Deps) Validate() error {
	switch {
	case d.Logger.GetLevel() == zerolog.Disabled:
		return ErrMissingLogger
	case d.APIHandler == nil:
		return ErrMissingAPIHandler
	}
	return nil
}
