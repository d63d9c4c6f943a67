// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// statusWriter records the status code and body size a handler produced.
type statusWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.status = code
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.written {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// routeOf reports the method and route chi resolved for r once the handler
// has run. fallback is returned when chi did not match a pattern.
func routeOf(r *http.Request, fallback string) (method, route string) {
	method, route = r.Method, fallback
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return method, route
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		route = pattern
	}
	if rctx.RouteMethod != "" {
		method = rctx.RouteMethod
	}
	return method, route
}
