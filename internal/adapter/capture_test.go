// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adapter

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_DefaultsToOK(t *testing.T) {
	c := newRecorder().captured()

	assert.Equal(t, http.StatusOK, c.StatusCode)
	assert.Equal(t, "", c.ContentType())
	assert.Empty(t, c.Bytes())
	assert.Equal(t, 0, c.ChunkCount())

	var chunks int
	for range c.Chunks() {
		chunks++
	}
	assert.Equal(t, 1, chunks)
}

func TestRecorder_FirstStatusWins(t *testing.T) {
	rec := newRecorder()
	rec.WriteHeader(http.StatusEarlyHints)
	rec.WriteHeader(http.StatusAccepted)
	rec.WriteHeader(http.StatusConflict)

	assert.Equal(t, http.StatusAccepted, rec.captured().StatusCode)
}

func TestRecorder_HeadersFrozenAtWriteHeader(t *testing.T) {
	rec := newRecorder()
	rec.Header().Set("Content-Type", "text/csv")
	_, _ = rec.Write([]byte("a,b\n"))
	rec.Header().Set("Content-Type", "application/json")

	assert.Equal(t, "text/csv", rec.captured().ContentType())
}

func TestRecorder_CopiesChunks(t *testing.T) {
	rec := newRecorder()
	buf := []byte("one")
	_, _ = rec.Write(buf)
	copy(buf, "two")
	_, _ = rec.Write(buf)
	_, _ = rec.Write(nil)

	c := rec.captured()
	assert.Equal(t, 2, c.ChunkCount())
	assert.Equal(t, "onetwo", string(c.Bytes()))
	assert.Equal(t, 6, c.Len())

	data, err := io.ReadAll(c.Reader())
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(data))
}

func TestCaptured_ChunksIsReplayable(t *testing.T) {
	rec := newRecorder()
	_, _ = rec.Write([]byte("a"))
	_, _ = rec.Write([]byte("b"))
	c := rec.captured()

	seq := c.Chunks()
	for i := 0; i < 3; i++ {
		var got []string
		for chunk := range seq {
			got = append(got, string(chunk))
		}
		assert.Equal(t, []string{"ab"}, got)
	}
}
