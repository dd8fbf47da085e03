// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/jeranaias/chatpane/internal/client"
	"github.com/jeranaias/chatpane/internal/config"
	"github.com/jeranaias/chatpane/internal/storage"
)

// Exit codes for the different error categories.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitStorageError  = 9
)

// UsageError reports invalid command usage.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	var verrs config.ValidateErrors
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &verrs):
		return ExitConfigError
	case errors.Is(err, storage.ErrChatNotFound):
		return ExitNotFoundError
	case errors.Is(err, storage.ErrCorrupt), errors.Is(err, storage.ErrUnavailable):
		return ExitStorageError
	case errors.Is(err, client.ErrConnection), errors.Is(err, client.ErrTimeout):
		return ExitNetworkError
	}
	return ExitGeneralError
}
