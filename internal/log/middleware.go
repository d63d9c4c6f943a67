// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Middleware logs one access line per request with status, size and latency.
func Middleware() func(http.Handler) http.Handler {
	return MiddlewareWithLogger(WithComponent("http"))
}

// MiddlewareWithLogger is Middleware with an explicit logger.
func MiddlewareWithLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			aw := &accessWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(aw, r)

			l := WithContext(r.Context(), logger)
			ev := l.Info()
			if aw.status >= http.StatusInternalServerError {
				ev = l.Error()
			}
			ev.Str(FieldEvent, "http.request").
				Str(FieldMethod, r.Method).
				Str(FieldPath, r.URL.Path).
				Int(FieldStatus, aw.status).
				Int(FieldBytes, aw.bytes).
				Dur(FieldDuration, time.Since(start)).
				Str(FieldRemoteAddr, r.RemoteAddr).
				Msg("request handled")
		})
	}
}

type accessWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *accessWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *accessWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *accessWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
