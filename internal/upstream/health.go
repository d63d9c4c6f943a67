// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upstream

import (
	"context"
	"net"
	"net/url"

	"github.com/ManuGH/agentbridge/internal/health"
)

// Checker reports whether the upstream accepts TCP connections.
type Checker struct {
	addr   string
	dialer net.Dialer
}

// NewChecker returns a readiness checker for target.
func NewChecker(target *url.URL) *Checker {
	return &Checker{addr: hostPort(target)}
}

func (c *Checker) Name() string { return "upstream" }

func (c *Checker) Check(ctx context.Context) health.CheckResult {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return health.CheckResult{
			Status:  health.StatusUnhealthy,
			Message: c.addr,
			Error:   err.Error(),
		}
	}
	_ = conn.Close()
	return health.CheckResult{Status: health.StatusHealthy, Message: c.addr}
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
