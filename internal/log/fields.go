// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldEvent     = "event"

	// Invocation fields
	FieldActionGroup = "action_group"
	FieldAPIPath     = "api_path"
	FieldHTTPMethod  = "http_method"
	FieldOutcome     = "outcome"
	FieldSessionID   = "session_id"
	FieldAgent       = "agent"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldBytes      = "bytes"
	FieldDuration   = "duration"
	FieldRemoteAddr = "remote_addr"
)
