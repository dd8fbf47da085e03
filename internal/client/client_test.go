// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpane/internal/model"
)

// chunkServer writes each part of parts as its own flushed write.
func chunkServer(t *testing.T, parts ...[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, p := range parts {
			w.Write(p)
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(t *testing.T, c *Client, msgs []model.Message) ([]string, error) {
	t.Helper()
	var chunks []string
	err := c.ChatStream(context.Background(), msgs, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	return chunks, err
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestChatStream_Chunks(t *testing.T) {
	srv := chunkServer(t, []byte("Hel"), []byte("lo "), []byte("world"))
	c := New(Config{Endpoint: srv.URL})

	chunks, err := collect(t, c, []model.Message{model.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", strings.Join(chunks, ""))
	assert.NotEmpty(t, chunks)
}

func TestChatStream_SendsConversation(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	msgs := []model.Message{
		model.NewUserMessage("first"),
		model.NewAssistantMessage("reply"),
		model.NewUserMessage("second"),
	}
	_, err := collect(t, New(Config{Endpoint: srv.URL}), msgs)
	require.NoError(t, err)
	assert.Equal(t, msgs, got.Messages)
}

func TestChatStream_SplitRune(t *testing.T) {
	e := []byte("é")
	require.Len(t, e, 2)

	srv := chunkServer(t,
		append([]byte("caf"), e[0]),
		append([]byte{e[1]}, []byte("!")...),
	)

	chunks, err := collect(t, New(Config{Endpoint: srv.URL}), nil)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q is not valid UTF-8", c)
	}
	assert.Equal(t, "café!", strings.Join(chunks, ""))
}

func TestChatStream_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	called := false
	err := New(Config{Endpoint: srv.URL}).ChatStream(context.Background(), nil, func(string) { called = true })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
	assert.False(t, called, "callback must not run for an error status")

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}

func TestChatStream_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := collect(t, New(Config{Endpoint: url}), nil)
	assert.True(t, errors.Is(err, ErrConnection), "got %v", err)
}

func TestChatStream_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	chunks, err := collect(t, New(Config{Endpoint: srv.URL}), nil)
	require.NoError(t, err, "an empty 200 is an empty reply")
	assert.Empty(t, chunks)
}

func TestChatStream_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	err := New(Config{Endpoint: srv.URL}).ChatStream(ctx, nil, func(string) { cancel() })
	assert.Error(t, err)
}

func TestResponseBody(t *testing.T) {
	_, err := responseBody(&http.Response{StatusCode: http.StatusOK, Status: "200 OK"})
	assert.True(t, errors.Is(err, ErrNoBody))

	rc, err := responseBody(&http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody})
	require.NoError(t, err)
	assert.Equal(t, http.NoBody, rc)

	_, err = responseBody(&http.Response{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway", Body: http.NoBody})
	assert.True(t, errors.Is(err, ErrBadStatus))

	body := io.NopCloser(strings.NewReader("x"))
	rc, err = responseBody(&http.Response{StatusCode: http.StatusNoContent, Body: body})
	assert.NoError(t, err)
	assert.Equal(t, body, rc)
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

// byteReader returns one byte per Read call.
type byteReader struct{ data []byte }

func (b *byteReader) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	p[0] = b.data[0]
	b.data = b.data[1:]
	return 1, nil
}

func TestStreamReader_ByteAtATime(t *testing.T) {
	r := NewStreamReader(&byteReader{data: []byte("日本語")})

	var chunks []string
	require.NoError(t, r.Process(context.Background(), func(c string) { chunks = append(chunks, c) }))

	assert.Equal(t, "日本語", strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
	}
	assert.Equal(t, len(chunks), r.Stats().Chunks)
}

func TestStreamReader_InvalidBytes(t *testing.T) {
	r := NewStreamReader(strings.NewReader("a\xffb"))

	var sb strings.Builder
	require.NoError(t, r.Process(context.Background(), func(c string) { sb.WriteString(c) }))
	assert.Equal(t, "a\uFFFDb", sb.String())
}

func TestClientError_Is(t *testing.T) {
	err := &ClientError{Type: ErrTypeConnection, Message: "x", Cause: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, ErrConnection))
	assert.False(t, errors.Is(err, ErrBadStatus))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "x: unexpected EOF", err.Error())
}
