// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/chatpane/internal/model"
)

// ChatsKey is the substrate key holding the whole conversation collection.
const ChatsKey = "chat-history"

// ChatRepository is the persistence port used by the session controller and
// the sidebar.
type ChatRepository interface {
	SaveChat(ctx context.Context, conv model.Conversation) error
	GetChats(ctx context.Context) ([]model.Conversation, error)
	GetChat(ctx context.Context, id string) (model.Conversation, error)
	DeleteChat(ctx context.Context, id string) error
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore implements ChatRepository on top of a Substrate.
type ChatStore struct {
	sub    Substrate
	key    string
	logger *slog.Logger

	// mu serializes read-modify-write cycles within this process.
	// Other processes sharing the substrate are not coordinated.
	mu sync.Mutex
}

// NewChatStore creates a store over sub. A nil logger discards output.
func NewChatStore(sub Substrate, logger *slog.Logger) *ChatStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ChatStore{
		sub:    sub,
		key:    ChatsKey,
		logger: logger.With("component", "storage"),
	}
}

// Substrate returns the underlying substrate.
func (s *ChatStore) Substrate() Substrate {
	return s.sub
}

// SaveChat inserts conv, or replaces the stored record with the same ID.
// New conversations are appended to the end of the collection.
func (s *ChatStore) SaveChat(ctx context.Context, conv model.Conversation) error {
	if conv.ID == "" {
		return fmt.Errorf("save chat: conversation has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}

	replaced := false
	for i := range chats {
		if chats[i].ID == conv.ID {
			chats[i] = conv.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		chats = append(chats, conv.Clone())
	}

	if err := s.store(ctx, chats); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}

	s.logger.Debug("CHAT_SAVED", "id", conv.ID, "messages", len(conv.Messages), "replaced", replaced)
	return nil
}

// GetChats returns every stored conversation in storage order.
// An absent key or an unavailable substrate yields an empty slice.
// A malformed collection yields an error wrapping ErrCorrupt.
func (s *ChatStore) GetChats(ctx context.Context) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if errors.Is(err, ErrUnavailable) {
		s.logger.Warn("STORE_UNAVAILABLE", "error", err)
		return []model.Conversation{}, nil
	}
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChat returns the conversation with the given ID, or ErrChatNotFound.
func (s *ChatStore) GetChat(ctx context.Context, id string) (model.Conversation, error) {
	chats, err := s.GetChats(ctx)
	if err != nil {
		return model.Conversation{}, err
	}
	for _, c := range chats {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Conversation{}, ErrChatNotFound
}

// DeleteChat removes the conversation with the given ID.
// Deleting an unknown ID rewrites the collection unchanged.
func (s *ChatStore) DeleteChat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	kept := chats[:0]
	for _, c := range chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}

	if err := s.store(ctx, kept); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	s.logger.Debug("CHAT_DELETED", "id", id, "found", len(kept) < len(chats))
	return nil
}

// Clear removes the collection key entirely.
func (s *ChatStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sub.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}
	s.logger.Info("CHATS_CLEARED")
	return nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// load reads and decodes the collection. Callers hold s.mu.
func (s *ChatStore) load(ctx context.Context) ([]model.Conversation, error) {
	raw, ok, err := s.sub.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Conversation{}, nil
	}
	return DecodeChats([]byte(raw))
}

// store encodes and writes the collection. Callers hold s.mu.
func (s *ChatStore) store(ctx context.Context, chats []model.Conversation) error {
	data, err := EncodeChats(chats)
	if err != nil {
		return err
	}
	return s.sub.Set(ctx, s.key, string(data))
}

// EncodeChats serializes a collection to its stored JSON form.
func EncodeChats(chats []model.Conversation) ([]byte, error) {
	if chats == nil {
		chats = []model.Conversation{}
	}
	data, err := json.Marshal(chats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chats: %w", err)
	}
	return data, nil
}

// DecodeChats parses the stored JSON form. Creation timestamps are parsed
// back into time values; a null message list becomes an empty one.
func DecodeChats(data []byte) ([]model.Conversation, error) {
	var chats []model.Conversation
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, wrap(ErrCorrupt, err)
	}
	if chats == nil {
		return []model.Conversation{}, nil
	}
	for i := range chats {
		if chats[i].ID == "" {
			return nil, wrap(ErrCorrupt, fmt.Errorf("record %d has no id", i))
		}
		if chats[i].Messages == nil {
			chats[i].Messages = []model.Message{}
		}
	}
	return chats, nil
}
