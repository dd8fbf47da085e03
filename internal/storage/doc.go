// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatpane.
//
// The whole conversation collection is stored as one JSON array under a
// single key of a key-value Substrate. Every save or delete reads the full
// collection, modifies it, and writes it back. Two processes writing at the
// same time can lose each other's updates; the last write wins at
// whole-collection granularity.
//
// # Key Types
//
//   - Substrate: get/set/remove by key (file, sqlite, redis, memory, unavailable)
//   - ChatRepository: the save/list/get/delete port injected into the session and UI
//   - ChatStore: ChatRepository implementation over a Substrate
//   - Watcher: fsnotify-based notification when another process rewrites the file
//
// # Usage
//
//	sub, err := storage.Open(storage.Options{Backend: "file", DataDir: dir})
//	store := storage.NewChatStore(sub, logger)
//	err = store.SaveChat(ctx, conv)
//	chats, err := store.GetChats(ctx)
//
// # Storage Location
//
// The file backend writes ~/.chatpane/chat-history.json by default.
package storage
