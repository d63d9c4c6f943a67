// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Invocation envelope attributes
	ActionGroupKey    = "bedrock.action_group"
	AgentNameKey      = "bedrock.agent.name"
	ParameterCountKey = "bedrock.parameters"
	ContentTypeKey    = "bedrock.content_type"

	// Upstream attributes
	UpstreamHostKey = "upstream.host"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// InvocationAttributes describes a decoded invocation envelope. Empty values are skipped.
func InvocationAttributes(actionGroup, apiPath, method, agent string, parameters int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	attrs = append(attrs,
		attribute.String(ActionGroupKey, actionGroup),
		attribute.String(HTTPRouteKey, apiPath),
		attribute.String(HTTPMethodKey, method),
	)
	if agent != "" {
		attrs = append(attrs, attribute.String(AgentNameKey, agent))
	}
	if parameters > 0 {
		attrs = append(attrs, attribute.Int(ParameterCountKey, parameters))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
