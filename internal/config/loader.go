// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/agentbridge/internal/log"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath string
	environ    map[string]string

	// ConsumedEnvKeys records the environment variables applied by the last Load.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path skips the file layer.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithEnvironment replaces the process environment, for tests and dry runs.
func (l *Loader) WithEnvironment(environ map[string]string) *Loader {
	l.environ = environ
	return l
}

// Load loads configuration with precedence: ENV > File > Defaults.
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("apply environment: %w", err)
	}

	normalize(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes a single strict YAML document on top of cfg.
func (l *Loader) loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// applyEnv overlays AGENTBRIDGE_* variables. Unset variables leave cfg untouched.
func (l *Loader) applyEnv(cfg *Config) error {
	logger := log.WithComponent("config")
	l.ConsumedEnvKeys = make(map[string]struct{})

	opts := env.Options{
		Prefix: EnvPrefix,
		OnSet: func(tag string, value any, isDefault bool) {
			if isDefault {
				return
			}
			l.ConsumedEnvKeys[tag] = struct{}{}
			ev := logger.Debug().Str("key", tag).Str("source", "environment")
			if sensitive(tag) {
				ev = ev.Bool("sensitive", true)
			} else {
				ev = ev.Interface("value", value)
			}
			ev.Msg("using environment variable")
		},
	}
	if l.environ != nil {
		opts.Environment = l.environ
	}
	return env.ParseWithOptions(cfg, opts)
}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

func normalize(cfg *Config) {
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.PassThroughPath = strings.TrimSpace(cfg.PassThroughPath)
	cfg.UpstreamURL = strings.TrimSpace(cfg.UpstreamURL)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Exporter))

	preferred := cfg.PreferredContentTypes[:0]
	for _, ct := range cfg.PreferredContentTypes {
		if ct = strings.TrimSpace(ct); ct != "" {
			preferred = append(preferred, ct)
		}
	}
	cfg.PreferredContentTypes = preferred
}
