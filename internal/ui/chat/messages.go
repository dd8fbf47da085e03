// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/session"
)

// SnapshotMsg delivers controller state published off the UI goroutine.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// SubmitDoneMsg signals that a send cycle has finished.
type SubmitDoneMsg struct {
	Err error
}

// opDoneMsg signals that a controller operation started by the UI finished.
type opDoneMsg struct {
	op  string
	err error
}

// StoreChangedMsg signals that another process rewrote the store.
type StoreChangedMsg struct{}

// chatsReloadedMsg carries the collection re-read after StoreChangedMsg.
type chatsReloadedMsg struct {
	chats []model.Conversation
	err   error

	// rev is the controller Revision taken before the read.
	rev uint64
}
