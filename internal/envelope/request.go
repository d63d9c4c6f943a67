// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Request is a validated inbound invocation envelope.
type Request struct {
	APIPath     string
	HTTPMethod  string
	ActionGroup string

	// SessionAttributes and PromptSessionAttributes are opaque JSON objects
	// echoed back without interpretation.
	SessionAttributes       json.RawMessage
	PromptSessionAttributes json.RawMessage

	Parameters  []Parameter
	RequestBody *RequestBody

	// Informational fields, logged on decode and never forwarded.
	MessageVersion string
	SessionID      string
	InputText      string
	Agent          Agent
}

// Agent identifies the orchestrating agent that produced the invocation.
type Agent struct {
	Name    string `json:"name,omitempty"`
	ID      string `json:"id,omitempty"`
	Alias   string `json:"alias,omitempty"`
	Version string `json:"version,omitempty"`
}

// Parameter is a single name/value pair. Value holds raw JSON.
type Parameter struct {
	Name  string
	Type  string
	Value json.RawMessage
}

// RequestBody carries the structured body, keyed by content type.
// A nil Content means the envelope had no content; a non-nil empty map means
// content was present but empty.
type RequestBody struct {
	Content map[string]MediaContent
}

// MediaContent is the body for a single content type.
type MediaContent struct {
	Properties []Parameter
}

type wireRequest struct {
	APIPath                 *string          `json:"apiPath"`
	HTTPMethod              *string          `json:"httpMethod"`
	ActionGroup             *string          `json:"actionGroup"`
	SessionAttributes       json.RawMessage  `json:"sessionAttributes"`
	PromptSessionAttributes json.RawMessage  `json:"promptSessionAttributes"`
	Parameters              []wireParameter  `json:"parameters"`
	RequestBody             *wireRequestBody `json:"requestBody"`

	MessageVersion string `json:"messageVersion"`
	SessionID      string `json:"sessionId"`
	InputText      string `json:"inputText"`
	Agent          *Agent `json:"agent"`
}

type wireParameter struct {
	Name  *string         `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type wireRequestBody struct {
	Content map[string]wireMediaContent `json:"content"`
}

type wireMediaContent struct {
	Properties []wireParameter `json:"properties"`
}

// Decode parses and validates an inbound envelope. Every failure wraps
// ErrInvalidRequestBody.
func Decode(data []byte) (*Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequestBody, err)
	}

	switch {
	case w.APIPath == nil:
		return nil, missingField("apiPath")
	case w.HTTPMethod == nil:
		return nil, missingField("httpMethod")
	case w.ActionGroup == nil:
		return nil, missingField("actionGroup")
	case isNull(w.SessionAttributes):
		return nil, missingField("sessionAttributes")
	case isNull(w.PromptSessionAttributes):
		return nil, missingField("promptSessionAttributes")
	}
	if !isObject(w.SessionAttributes) {
		return nil, fmt.Errorf("%w: sessionAttributes is not an object", ErrInvalidRequestBody)
	}
	if !isObject(w.PromptSessionAttributes) {
		return nil, fmt.Errorf("%w: promptSessionAttributes is not an object", ErrInvalidRequestBody)
	}

	params, err := convertParameters("parameters", w.Parameters)
	if err != nil {
		return nil, err
	}

	req := &Request{
		APIPath:                 *w.APIPath,
		HTTPMethod:              *w.HTTPMethod,
		ActionGroup:             *w.ActionGroup,
		SessionAttributes:       w.SessionAttributes,
		PromptSessionAttributes: w.PromptSessionAttributes,
		Parameters:              params,
		MessageVersion:          w.MessageVersion,
		SessionID:               w.SessionID,
		InputText:               w.InputText,
	}
	if w.Agent != nil {
		req.Agent = *w.Agent
	}

	if w.RequestBody != nil && w.RequestBody.Content != nil {
		content := make(map[string]MediaContent, len(w.RequestBody.Content))
		for contentType, media := range w.RequestBody.Content {
			props, err := convertParameters("requestBody.content["+contentType+"].properties", media.Properties)
			if err != nil {
				return nil, err
			}
			content[contentType] = MediaContent{Properties: props}
		}
		req.RequestBody = &RequestBody{Content: content}
	}

	return req, nil
}

// HasContent reports whether the envelope carried a requestBody.content
// object, even an empty one.
func (r *Request) HasContent() bool {
	return r.RequestBody != nil && r.RequestBody.Content != nil
}

func convertParameters(field string, in []wireParameter) ([]Parameter, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Parameter, 0, len(in))
	for i, p := range in {
		if p.Name == nil {
			return nil, fmt.Errorf("%w: %s[%d] has no name", ErrInvalidRequestBody, field, i)
		}
		value := p.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		out = append(out, Parameter{Name: *p.Name, Type: p.Type, Value: value})
	}
	return out, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing required field %q", ErrInvalidRequestBody, name)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
