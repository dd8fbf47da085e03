// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTitle labels a conversation that has no messages yet.
	DefaultTitle = "New Chat"

	// TitleMaxRunes is the length of the first-message prefix used as a title.
	TitleMaxRunes = 30
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() Conversation {
	return Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: time.Now().Round(0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// WithMessage returns a copy of the conversation with msg appended.
// The first user message also becomes the title.
func (c Conversation) WithMessage(msg Message) Conversation {
	next := c.Clone()
	if len(c.Messages) == 0 && msg.Role == RoleUser {
		next.Title = TitleFromContent(msg.Content)
	}
	next.Messages = append(next.Messages, msg)
	return next
}

// Clone returns a deep copy with its own message slice.
func (c Conversation) Clone() Conversation {
	next := c
	next.Messages = make([]Message, len(c.Messages), len(c.Messages)+2)
	copy(next.Messages, c.Messages)
	return next
}

// LastMessage returns the most recent message and false if there is none.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessageCount returns the number of messages.
func (c Conversation) MessageCount() int {
	return len(c.Messages)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// TitleFromContent derives a title from the first user message: the trimmed
// content cut to TitleMaxRunes runes, without an ellipsis.
func TitleFromContent(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return DefaultTitle
	}
	runes := []rune(content)
	if len(runes) > TitleMaxRunes {
		runes = runes[:TitleMaxRunes]
	}
	return string(runes)
}
