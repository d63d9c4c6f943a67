// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package envelope defines the action-group invocation envelopes exchanged
// with an agent orchestrator: the inbound request carrying API routing
// metadata, parameters and a structured body, and the outbound response
// wrapping a downstream HTTP result.
package envelope
