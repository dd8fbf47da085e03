// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeBadStatus ErrorType = iota + 1
	ErrTypeNoBody
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeInvalidRequest
)

// Sentinel errors for easy checking.
var (
	ErrBadStatus  = &ClientError{Type: ErrTypeBadStatus, Message: "endpoint returned an error status"}
	ErrNoBody     = &ClientError{Type: ErrTypeNoBody, Message: "response has no readable body"}
	ErrConnection = &ClientError{Type: ErrTypeConnection, Message: "connection to endpoint failed"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)
