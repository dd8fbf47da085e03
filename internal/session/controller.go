// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/storage"
)

// Errors returned by Controller operations.
var (
	ErrBusy       = errors.New("a reply is still streaming")
	ErrEmptyInput = errors.New("input is empty")
	ErrNoChat     = errors.New("no conversation selected")
)

// Streamer sends a conversation to the chat endpoint and reports each
// decoded increment of the reply in arrival order.
type Streamer interface {
	ChatStream(ctx context.Context, messages []model.Message, callback func(chunk string)) error
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	// Seq increases with every published snapshot.
	Seq uint64

	// Revision increases after every write this controller makes to the
	// repository and every adopted collection. A collection read that
	// started at an older Revision may predate those writes.
	Revision uint64

	Chats     []model.Conversation
	Current   *model.Conversation
	Input     string
	Phase     Phase
	Streaming string

	// LastError describes the most recent failed send cycle, if any.
	LastError string
}

// CurrentID returns the selected conversation ID, or "".
func (s Snapshot) CurrentID() string {
	if s.Current == nil {
		return ""
	}
	return s.Current.ID
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives the send/stream/reconcile cycle for one view.
// Methods are safe for concurrent use. Submit blocks for the whole cycle and
// is meant to run off the UI goroutine.
type Controller struct {
	repo     storage.ChatRepository
	streamer Streamer
	logger   *slog.Logger

	mu        sync.Mutex
	seq       uint64
	rev       uint64
	chats     []model.Conversation
	current   *model.Conversation
	input     string
	phase     Phase
	streaming strings.Builder
	lastErr   string

	// pubMu orders observer delivery. It is taken before mu is released so
	// snapshots reach observers in the order they were produced.
	pubMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
}

// NewController creates a controller. A nil logger discards output.
func NewController(repo storage.ChatRepository, streamer Streamer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		repo:      repo,
		streamer:  streamer,
		logger:    logger.With("component", "session"),
		chats:     []model.Conversation{},
		observers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive every published snapshot in order.
// fn runs synchronously on the publishing goroutine and must not call back
// into the Controller. The returned func removes the observer.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

// Load reads the collection and selects the most recently created
// conversation, creating a new one if the store is empty.
func (c *Controller) Load(ctx context.Context) error {
	chats, err := c.repo.GetChats(ctx)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	if len(chats) == 0 {
		_, err := c.NewChat(ctx)
		return err
	}

	sorted := sortedChats(chats)
	err = c.update(func() error {
		if c.phase.Busy() {
			return ErrBusy
		}
		c.chats = sorted
		latest := sorted[0].Clone()
		c.current = &latest
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("CHATS_LOADED", "count", len(sorted), "current", sorted[0].ID)
	return nil
}

// NewChat creates an empty conversation, persists it, and selects it.
func (c *Controller) NewChat(ctx context.Context) (model.Conversation, error) {
	if c.Snapshot().Phase.Busy() {
		return model.Conversation{}, ErrBusy
	}

	conv := model.NewConversation()
	if err := c.repo.SaveChat(ctx, conv); err != nil {
		return model.Conversation{}, fmt.Errorf("save new chat: %w", err)
	}
	c.noteWrite()

	err := c.update(func() error {
		if c.phase.Busy() {
			return ErrBusy
		}
		c.chats = append([]model.Conversation{conv.Clone()}, c.chats...)
		selected := conv.Clone()
		c.current = &selected
		c.input = ""
		c.phase = PhaseIdle
		return nil
	})
	if err != nil {
		return model.Conversation{}, err
	}
	c.logger.Info("CHAT_CREATED", "id", conv.ID)
	return conv, nil
}

// Select re-reads the conversation from the repository and makes it current.
func (c *Controller) Select(ctx context.Context, id string) error {
	if c.Snapshot().Phase.Busy() {
		return ErrBusy
	}

	conv, err := c.repo.GetChat(ctx, id)
	if err != nil {
		return fmt.Errorf("select chat %s: %w", id, err)
	}

	return c.update(func() error {
		if c.phase.Busy() {
			return ErrBusy
		}
		c.upsertLocked(conv)
		selected := conv.Clone()
		c.current = &selected
		return nil
	})
}

// ReplaceChats adopts a refreshed collection. It reports whether the
// current conversation is missing from it, in which case the caller is
// expected to follow with NewChat.
func (c *Controller) ReplaceChats(chats []model.Conversation) (currentGone bool) {
	sorted := sortedChats(chats)

	c.update(func() error {
		c.rev++
		c.chats = sorted
		if c.current == nil {
			return nil
		}

		for _, conv := range sorted {
			if conv.ID == c.current.ID {
				// While a cycle runs the in-memory record is ahead of the store.
				if !c.phase.Busy() {
					fresh := conv.Clone()
					c.current = &fresh
				}
				return nil
			}
		}

		if c.phase.Busy() {
			// Keep the in-flight conversation visible; finalize re-adds it.
			c.chats = append([]model.Conversation{c.current.Clone()}, c.chats...)
			return nil
		}
		c.current = nil
		currentGone = true
		return nil
	})
	return currentGone
}

// Delete removes a conversation the same way the sidebar does: delete
// through the repository, re-read the collection, and start a new chat if
// the deleted one was current.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if c.Snapshot().Phase.Busy() {
		return ErrBusy
	}

	if err := c.repo.DeleteChat(ctx, id); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	c.noteWrite()
	chats, err := c.repo.GetChats(ctx)
	if err != nil {
		return fmt.Errorf("reload chats: %w", err)
	}
	c.logger.Info("CHAT_DELETED", "id", id)

	if c.ReplaceChats(chats) {
		_, err := c.NewChat(ctx)
		return err
	}
	return nil
}

// SetInput replaces the input text. It has no effect on the store.
func (c *Controller) SetInput(text string) error {
	return c.update(func() error {
		if c.phase.Busy() {
			return ErrBusy
		}
		c.input = text
		if text == "" {
			c.phase = PhaseIdle
		} else {
			c.phase = PhaseCompose
		}
		return nil
	})
}

// =============================================================================
// SEND CYCLE
// =============================================================================

// Submit runs one send cycle with the current input and blocks until it
// completes. Stream failures are logged and recorded in Snapshot.LastError;
// the user message stays persisted and Submit returns nil. Persistence
// failures are returned. If the user message cannot be saved, the
// conversation and input are put back as they were.
func (c *Controller) Submit(ctx context.Context) error {
	var (
		conv, prev model.Conversation
		prevInput  string
	)

	err := c.update(func() error {
		if c.phase.Busy() {
			return ErrBusy
		}
		text := strings.TrimSpace(c.input)
		if text == "" {
			return ErrEmptyInput
		}
		if c.current == nil {
			return ErrNoChat
		}

		c.phase = PhaseSubmit
		prev = c.current.Clone()
		prevInput = c.input
		conv = c.current.WithMessage(model.NewUserMessage(text))
		c.setCurrentLocked(conv)
		c.input = ""
		c.lastErr = ""
		c.streaming.Reset()
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("SUBMIT", "chat", conv.ID, "messages", len(conv.Messages))

	if err := c.repo.SaveChat(ctx, conv); err != nil {
		c.update(func() error {
			c.setCurrentLocked(prev)
			c.input = prevInput
			c.phase = PhaseIdle
			c.lastErr = "failed to save message"
			return nil
		})
		return fmt.Errorf("save user message: %w", err)
	}
	c.noteWrite()

	c.setPhase(PhaseSending)

	streamErr := c.streamer.ChatStream(ctx, conv.Messages, func(chunk string) {
		c.update(func() error {
			c.phase = PhaseStreaming
			c.streaming.WriteString(chunk)
			return nil
		})
	})
	if streamErr != nil {
		c.logger.Error("STREAM_ERROR", "chat", conv.ID, "error", streamErr)
		c.finish(streamErr.Error())
		return nil
	}

	var final model.Conversation
	c.update(func() error {
		c.phase = PhaseFinalize
		final = conv.WithMessage(model.NewAssistantMessage(c.streaming.String()))
		c.streaming.Reset()
		c.setCurrentLocked(final)
		return nil
	})

	c.logger.Info("STREAM_COMPLETE", "chat", final.ID, "bytes", len(final.Messages[len(final.Messages)-1].Content))

	if err := c.repo.SaveChat(ctx, final); err != nil {
		c.finish("failed to save reply")
		return fmt.Errorf("save assistant message: %w", err)
	}
	c.noteWrite()

	c.finish("")
	return nil
}

// finish clears the buffer and returns to Idle, recording errMsg.
func (c *Controller) finish(errMsg string) {
	c.update(func() error {
		c.phase = PhaseIdle
		c.streaming.Reset()
		c.lastErr = errMsg
		return nil
	})
}

// noteWrite records a completed repository write without publishing.
func (c *Controller) noteWrite() {
	c.mu.Lock()
	c.rev++
	c.mu.Unlock()
}

func (c *Controller) setPhase(p Phase) {
	c.update(func() error {
		c.phase = p
		return nil
	})
}

// =============================================================================
// INTERNAL STATE HELPERS
// =============================================================================

// update applies fn under the state lock and publishes the result. If fn
// returns an error nothing is published.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.seq++
	snap := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for i := 0; i < c.nextObs; i++ {
		if obs, ok := c.observers[i]; ok {
			observers = append(observers, obs)
		}
	}

	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	for _, obs := range observers {
		obs(snap)
	}
	return nil
}

// setCurrentLocked replaces the cycle's conversation in the collection and,
// if it is still selected, as the current conversation.
func (c *Controller) setCurrentLocked(conv model.Conversation) {
	c.upsertLocked(conv)
	if c.current == nil || c.current.ID == conv.ID {
		selected := conv.Clone()
		c.current = &selected
	}
}

func (c *Controller) upsertLocked(conv model.Conversation) {
	for i := range c.chats {
		if c.chats[i].ID == conv.ID {
			c.chats[i] = conv.Clone()
			return
		}
	}
	c.chats = append([]model.Conversation{conv.Clone()}, c.chats...)
}

func (c *Controller) snapshotLocked() Snapshot {
	chats := make([]model.Conversation, len(c.chats))
	for i, conv := range c.chats {
		chats[i] = conv.Clone()
	}

	snap := Snapshot{
		Seq:       c.seq,
		Revision:  c.rev,
		Chats:     chats,
		Input:     c.input,
		Phase:     c.phase,
		Streaming: c.streaming.String(),
		LastError: c.lastErr,
	}
	if c.current != nil {
		cur := c.current.Clone()
		snap.Current = &cur
	}
	return snap
}

// sortedChats returns a copy ordered newest first. Equal timestamps keep
// their stored order.
func sortedChats(chats []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(chats))
	for i, conv := range chats {
		out[i] = conv.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
