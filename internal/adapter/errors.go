// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/agentbridge/internal/envelope"
)

// Public error messages. Nothing else is ever returned to the caller.
const (
	MessageInvalidRequestBody = "Invalid request body"
	MessageContentTypeMissing = "Content type not found"
	MessageInternalError      = "Internal Server Error"
)

// Outcome labels used for metrics and logs.
const (
	OutcomePassThrough         = "pass_through"
	OutcomeOK                  = "ok"
	OutcomeInvalidBody         = "invalid_body"
	OutcomeContentTypeNotFound = "content_type_not_found"
	OutcomeInternalError       = "internal_error"
)

// Error is a translation failure mapped to a caller-facing response.
type Error struct {
	Status  int
	Message string
	Outcome string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from the downstream handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("downstream handler panicked: %v", e.Value)
}

// classify maps any pipeline error onto the public error taxonomy.
// Unknown errors become a generic 500.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, envelope.ErrContentTypeNotFound):
		return &Error{Status: http.StatusBadRequest, Message: MessageContentTypeMissing, Outcome: OutcomeContentTypeNotFound, Err: err}
	case errors.Is(err, envelope.ErrInvalidRequestBody), errors.As(err, &tooLarge):
		return &Error{Status: http.StatusBadRequest, Message: MessageInvalidRequestBody, Outcome: OutcomeInvalidBody, Err: err}
	default:
		return &Error{Status: http.StatusInternalServerError, Message: MessageInternalError, Outcome: OutcomeInternalError, Err: err}
	}
}
