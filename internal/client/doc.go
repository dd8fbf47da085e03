// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides the HTTP client for the streaming chat endpoint.
//
// The endpoint accepts POST {"messages":[{"role","content"}...]} and answers
// with a plain-text body written incrementally. The client hands each decoded
// increment to a callback in arrival order.
//
// # Usage
//
//	c := client.New(client.Config{Endpoint: "http://127.0.0.1:8787/api/chat"})
//	err := c.ChatStream(ctx, conv.Messages, func(chunk string) {
//	    fmt.Print(chunk)
//	})
//
// # Errors
//
//   - ErrBadStatus: the endpoint answered with a non-2xx status
//   - ErrNoBody: the response has no readable body
//   - ErrConnection: the request could not be sent or the stream broke
//   - ErrTimeout: the context deadline passed
//
// All of them are *ClientError values and match with errors.Is.
package client
