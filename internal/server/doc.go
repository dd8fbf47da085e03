// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the development chat endpoint started by
// `chatpane serve`. It speaks the same wire format the client expects and
// streams an echo of the last message as plain-text chunks.
package server
