// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StreamCallback receives one decoded increment of the reply.
type StreamCallback = func(chunk string)

// readBufferSize bounds how much of the body one increment can carry.
const readBufferSize = 4096

// =============================================================================
// STREAM READER
// =============================================================================

// StreamStats describes a finished stream.
type StreamStats struct {
	Chunks     int
	Bytes      int
	FirstChunk time.Duration
	Duration   time.Duration
}

// StreamReader decodes a UTF-8 body incrementally. A multi-byte rune split
// across two network reads is held back until it is complete, so every
// increment is valid UTF-8. Invalid bytes become U+FFFD.
type StreamReader struct {
	reader    io.Reader
	buf       []byte
	stats     StreamStats
	startTime time.Time
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader:    transform.NewReader(r, unicode.UTF8.NewDecoder()),
		buf:       make([]byte, readBufferSize),
		startTime: time.Now(),
	}
}

// Process reads the stream and calls the callback for each increment.
// Blocks until the stream ends or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		if err := ctx.Err(); err != nil {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}

		n, err := s.reader.Read(s.buf)
		if n > 0 {
			if s.stats.Chunks == 0 {
				s.stats.FirstChunk = time.Since(s.startTime)
			}
			s.stats.Chunks++
			s.stats.Bytes += n
			callback(string(s.buf[:n]))
		}

		if errors.Is(err, io.EOF) {
			s.stats.Duration = time.Since(s.startTime)
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: ctxErr}
			}
			return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
		}
	}
}

// Stats returns counters for the stream so far.
func (s *StreamReader) Stats() StreamStats {
	return s.stats
}
