// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types shared by the store, the session
// controller, and the render layer.
//
// # Key Types
//
//   - Conversation: A titled, ordered sequence of messages with a UUID and creation time
//   - Message: A single turn attributed to the user or the assistant
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Create a conversation and append the first user message:
//
//	conv := model.NewConversation()
//	conv = conv.WithMessage(model.NewUserMessage("Hello"))
//	fmt.Println(conv.Title) // "Hello"
//
// Conversations are values. WithMessage returns a copy with its own message
// slice, so a snapshot handed to the render layer never changes underneath it.
package model
