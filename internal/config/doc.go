// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for agentbridge.
//
// Precedence is ENV > YAML file > defaults. Environment variables carry the
// AGENTBRIDGE_ prefix, nested sections add their own (AGENTBRIDGE_LOG_LEVEL,
// AGENTBRIDGE_TELEMETRY_ENDPOINT, ...).
package config
