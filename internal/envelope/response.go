// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package envelope

import "encoding/json"

// MessageVersion is the only envelope version produced.
const MessageVersion = "1.0"

// Response is the outbound invocation envelope.
type Response struct {
	MessageVersion string       `json:"messageVersion"`
	Response       ResponseBody `json:"response"`
}

// ResponseBody carries the echoed routing fields and the downstream result.
type ResponseBody struct {
	ActionGroup             string                  `json:"actionGroup"`
	APIPath                 string                  `json:"apiPath"`
	HTTPMethod              string                  `json:"httpMethod"`
	HTTPStatusCode          int                     `json:"httpStatusCode"`
	ResponseBody            map[string]BodyEnvelope `json:"responseBody"`
	SessionAttributes       json.RawMessage         `json:"sessionAttributes"`
	PromptSessionAttributes json.RawMessage         `json:"promptSessionAttributes"`
}

// BodyEnvelope holds the downstream body as text.
type BodyEnvelope struct {
	Body string `json:"body"`
}

// ErrorBody is the payload of translation failures.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewResponse wraps a downstream result for req. The response body map has
// exactly one key, contentType, which may be empty.
func NewResponse(req *Request, statusCode int, contentType, body string) Response {
	return Response{
		MessageVersion: MessageVersion,
		Response: ResponseBody{
			ActionGroup:             req.ActionGroup,
			APIPath:                 req.APIPath,
			HTTPMethod:              req.HTTPMethod,
			HTTPStatusCode:          statusCode,
			ResponseBody:            map[string]BodyEnvelope{contentType: {Body: body}},
			SessionAttributes:       req.SessionAttributes,
			PromptSessionAttributes: req.PromptSessionAttributes,
		},
	}
}
