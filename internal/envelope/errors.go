// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package envelope

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequestBody classifies envelopes that cannot be used: malformed
	// JSON, missing or null required fields, unnamed parameters.
	// Use errors.Is(err, ErrInvalidRequestBody) instead of string matching.
	ErrInvalidRequestBody = errors.New("invalid request body")

	// ErrContentTypeNotFound is returned when requestBody.content is present
	// but carries no usable content-type key.
	ErrContentTypeNotFound = errors.New("content type not found")

	// ErrAmbiguousContentType is returned when requestBody.content carries
	// several content types and none matches the configured preference.
	ErrAmbiguousContentType = fmt.Errorf("%w: ambiguous content type", ErrInvalidRequestBody)
)
