// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeranaias/chatpane/internal/model"
)

// DefaultEndpoint is the chat endpoint served by `chatpane serve`.
const DefaultEndpoint = "http://127.0.0.1:8787/api/chat"

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the chat client.
type Config struct {
	// Endpoint is the full URL of the chat endpoint.
	Endpoint string

	// Timeout bounds the wait for response headers. The body itself may
	// stream for as long as the context allows. Zero means 30s.
	Timeout time.Duration

	// Token is sent as "Authorization: Bearer <token>" when set.
	Token string

	// HTTPClient overrides the HTTP client. Mostly useful in tests.
	HTTPClient *http.Client

	// Logger receives request diagnostics. Nil discards them.
	Logger *slog.Logger
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts conversations to the chat endpoint and streams the reply.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client, filling in defaults for zero values.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No overall Timeout: it would cut long streams. The context and
		// the header timeout cover the rest.
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = cfg.Timeout
		httpClient = &http.Client{Transport: transport}
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     cfg.Logger.With("component", "client"),
	}
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ChatRequest is the JSON body sent to the endpoint.
type ChatRequest struct {
	Messages []model.Message `json:"messages"`
}

// ChatStream sends messages and calls callback for each decoded increment
// of the reply, in arrival order. It returns when the body is exhausted.
func (c *Client) ChatStream(ctx context.Context, messages []model.Message, callback StreamCallback) error {
	if messages == nil {
		messages = []model.Message{}
	}
	body, err := json.Marshal(ChatRequest{Messages: messages})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}

	rc, err := responseBody(resp)
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := NewStreamReader(rc)
	if err := reader.Process(ctx, callback); err != nil {
		return err
	}

	stats := reader.Stats()
	c.logger.Debug("STREAM_COMPLETE",
		"chunks", stats.Chunks,
		"bytes", stats.Bytes,
		"first_chunk", stats.FirstChunk,
		"duration", stats.Duration)
	return nil
}

// responseBody validates status and body presence. A 2xx with http.NoBody
// (Content-Length: 0) is an empty stream; only a nil body is ErrNoBody. On
// error the body, if any, is already closed.
func responseBody(resp *http.Response) (io.ReadCloser, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, &ClientError{
			Type:    ErrTypeBadStatus,
			Message: "stream request failed: " + resp.Status,
			Status:  resp.StatusCode,
		}
	}
	if resp.Body == nil {
		return nil, ErrNoBody
	}
	return resp.Body, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: ErrConnection.Message, Cause: err}
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("client(%s)", c.endpoint)
}
