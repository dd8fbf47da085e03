// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors. Use errors.Is to check for them; wrapped variants carry
// the underlying cause.
var (
	// ErrChatNotFound is returned by GetChat when no conversation has the id.
	ErrChatNotFound = &StoreError{Message: "chat not found"}

	// ErrCorrupt is returned when the stored collection cannot be parsed.
	ErrCorrupt = &StoreError{Message: "stored chat history is malformed"}

	// ErrUnavailable is returned by a substrate that cannot be reached in
	// the current execution context.
	ErrUnavailable = &StoreError{Message: "storage substrate unavailable"}
)

// StoreError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing storage errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// wrap returns a copy of sentinel carrying cause.
func wrap(sentinel *StoreError, cause error) error {
	return &StoreError{Message: sentinel.Message, Cause: cause}
}
