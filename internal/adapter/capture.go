// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adapter

import (
	"bytes"
	"io"
	"iter"
	"net/http"
)

// Captured is a fully buffered downstream response.
//
// The body is drained before translation; afterwards it can be read again
// as a whole (Bytes), as a fresh single-chunk sequence (Chunks) or as a fresh
// stream (Reader).
type Captured struct {
	StatusCode int
	Header     http.Header

	chunks [][]byte
	body   []byte
	joined bool
}

// ContentType returns the Content-Type header, or "" when absent.
func (c *Captured) ContentType() string {
	return c.Header.Get("Content-Type")
}

// ChunkCount returns how many writes produced the body.
func (c *Captured) ChunkCount() int {
	return len(c.chunks)
}

// Len returns the body length in bytes.
func (c *Captured) Len() int {
	return len(c.Bytes())
}

// Bytes returns the concatenated body.
func (c *Captured) Bytes() []byte {
	if !c.joined {
		c.body = bytes.Join(c.chunks, nil)
		c.joined = true
	}
	return c.body
}

// Chunks returns a replayable iterator yielding the whole body as one chunk.
func (c *Captured) Chunks() iter.Seq[[]byte] {
	body := c.Bytes()
	return func(yield func([]byte) bool) {
		yield(body)
	}
}

// Reader returns a fresh stream over the buffered body.
func (c *Captured) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(c.Bytes()))
}

// recorder is the http.ResponseWriter handed to the downstream handler.
// Every Write is kept as a separate chunk; nothing reaches the client.
type recorder struct {
	header      http.Header
	snapshot    http.Header
	status      int
	wroteHeader bool
	chunks      [][]byte
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

// WriteHeader records the first final status code. Informational codes other
// than 101 are ignored, like net/http does for the real connection.
func (r *recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.snapshot = r.header.Clone()
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if len(p) == 0 {
		return 0, nil
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	r.chunks = append(r.chunks, chunk)
	return len(p), nil
}

// Flush is a no-op: the response is only released once complete.
func (r *recorder) Flush() {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
}

func (r *recorder) captured() *Captured {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return &Captured{
		StatusCode: r.status,
		Header:     r.snapshot,
		chunks:     r.chunks,
	}
}
