// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/agentbridge/internal/config"
	"github.com/ManuGH/agentbridge/internal/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

// manager implements the Manager interface.
type manager struct {
	cfg  config.Config
	deps Deps

	apiServer     *http.Server
	metricsServer *http.Server

	// Shutdown hooks (LIFO order)
	shutdownHooks []namedHook

	started  bool
	stopping bool
	// stopped is closed when Shutdown begins, releasing Start.
	stopped chan struct{}
	mu      sync.Mutex

	logger zerolog.Logger
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(cfg config.Config, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		cfg:           cfg,
		deps:          deps,
		logger:        deps.Logger.With().Str("component", "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
		stopped:       make(chan struct{}),
	}, nil
}

// Start binds all listeners, serves until ctx is cancelled, Shutdown is
// called or a server fails, and then shuts down.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", m.cfg.ListenAddr).
		Str("metrics_listen", m.cfg.Metrics.ListenAddr).
		Bool("h2c", m.cfg.H2C).
		Dur("read_timeout", m.cfg.Server.ReadTimeout).
		Dur("shutdown_timeout", m.cfg.Server.ShutdownTimeout).
		Msg("starting daemon manager")

	// Bind first so address conflicts fail Start before anything is served.
	apiLn, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: API listener: %w", ErrServerStartFailed, err)
	}
	var metricsLn net.Listener
	if m.deps.MetricsHandler != nil && m.cfg.Metrics.ListenAddr != "" {
		metricsLn, err = net.Listen("tcp", m.cfg.Metrics.ListenAddr)
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("%w: metrics listener: %w", ErrServerStartFailed, err)
		}
	}

	m.mu.Lock()
	m.apiServer = server.NewHTTPServer(m.cfg.ListenAddr, m.cfg, m.deps.APIHandler)
	if metricsLn != nil {
		m.metricsServer = &http.Server{
			Addr:              m.cfg.Metrics.ListenAddr,
			Handler:           m.deps.MetricsHandler,
			ReadHeaderTimeout: m.cfg.Server.ReadHeaderTimeout,
		}
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.logger.Info().Str("addr", apiLn.Addr().String()).Msg("API server listening")
		if err := m.apiServer.Serve(apiLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str("event", "api.server.failed").Msg("API server failed")
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})

	if metricsLn != nil {
		g.Go(func() error {
			m.logger.Info().Str("addr", metricsLn.Addr().String()).Msg("metrics server listening")
			if err := m.metricsServer.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error().Err(err).Str("event", "metrics.server.failed").Msg("metrics server failed")
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-m.stopped:
			return nil
		}
		if ctx.Err() != nil {
			m.logger.Info().Msg("shutdown signal received")
		} else {
			m.logger.Error().Msg("server error, initiating shutdown")
		}
		// Detached but bounded so shutdown completes after the parent is cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	close(m.stopped)
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	apiServer, metricsServer := m.apiServer, m.metricsServer
	m.mu.Unlock()

	m.logger.Info().Msg("shutting down daemon manager")
	if m.deps.Health != nil {
		m.deps.Health.SetDraining(true)
	}

	// Bounded shutdown context independent from caller cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if apiServer != nil {
		m.logger.Debug().Msg("shutting down API server")
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
			_ = apiServer.Close()
		}
	}

	if metricsServer != nil {
		m.logger.Debug().Msg("shutting down metrics server")
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			_ = metricsServer.Close()
		}
	}

	m.logger.Debug().Int("hooks", len(hooks)).Msg("executing shutdown hooks")
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]

		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
