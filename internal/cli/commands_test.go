// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/storage"
)

func TestListChats(t *testing.T) {
	ctx := context.Background()
	store := storage.NewChatStore(storage.NewMemorySubstrate(), nil)

	var buf bytes.Buffer
	if err := ListChats(ctx, store, &buf, DefaultTerminalWidth); err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if !strings.Contains(buf.String(), "No conversations.") {
		t.Errorf("empty list output = %q", buf.String())
	}

	older := model.NewConversation()
	older.Title = "older"
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := model.NewConversation()
	newer.Title = "newer"
	for _, c := range []model.Conversation{older, newer} {
		if err := store.SaveChat(ctx, c); err != nil {
			t.Fatalf("SaveChat: %v", err)
		}
	}

	buf.Reset()
	if err := ListChats(ctx, store, &buf, DefaultTerminalWidth); err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], newer.ID) || !strings.HasPrefix(lines[1], older.ID) {
		t.Errorf("want newest first:\n%s", buf.String())
	}
}

func TestListChats_TitleFitsWidth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewChatStore(storage.NewMemorySubstrate(), nil)
	conv := model.NewConversation()
	conv.Title = strings.Repeat("t", 60)
	if err := store.SaveChat(ctx, conv); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}

	for _, width := range []int{MinTerminalWidth, DefaultTerminalWidth, 120, 300} {
		var buf bytes.Buffer
		if err := ListChats(ctx, store, &buf, width); err != nil {
			t.Fatalf("ListChats: %v", err)
		}
		line := strings.TrimRight(buf.String(), "\n")
		want := listFixedWidth + ListTitleWidth(width)
		if got := runewidth.StringWidth(line); got != want {
			t.Errorf("width %d: line is %d columns, want %d:\n%s", width, got, want, line)
		}
	}
}

func TestListTitleWidth(t *testing.T) {
	tests := []struct {
		term, want int
	}{
		{MinTerminalWidth, minListTitleWidth},
		{DefaultTerminalWidth, DefaultTerminalWidth - listFixedWidth},
		{120, maxListTitleWidth},
	}
	for _, tt := range tests {
		if got := ListTitleWidth(tt.term); got != tt.want {
			t.Errorf("ListTitleWidth(%d) = %d, want %d", tt.term, got, tt.want)
		}
	}
}

func TestListChats_Corrupt(t *testing.T) {
	ctx := context.Background()
	sub := storage.NewMemorySubstrate()
	if err := sub.Set(ctx, storage.ChatsKey, "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := ListChats(ctx, storage.NewChatStore(sub, nil), &bytes.Buffer{}, DefaultTerminalWidth)
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestDeleteChat(t *testing.T) {
	ctx := context.Background()
	store := storage.NewChatStore(storage.NewMemorySubstrate(), nil)
	conv := model.NewConversation()
	if err := store.SaveChat(ctx, conv); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}

	var buf bytes.Buffer
	if err := DeleteChat(ctx, store, conv.ID, &buf); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if _, err := store.GetChat(ctx, conv.ID); !errors.Is(err, storage.ErrChatNotFound) {
		t.Errorf("chat still present: %v", err)
	}

	err := DeleteChat(ctx, store, conv.ID, &buf)
	if !errors.Is(err, storage.ErrChatNotFound) {
		t.Errorf("second delete err = %v, want ErrChatNotFound", err)
	}
	if ExitCode(err) != ExitNotFoundError {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitNotFoundError)
	}
}

func TestSetupLogging_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", LogFileName)

	logger, closeFn, err := SetupLogging("debug", path)
	if err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	logger.Debug("CHAT_SAVED", "id", "abc")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "CHAT_SAVED") || !strings.Contains(string(data), "id=abc") {
		t.Errorf("log file = %q", data)
	}
}

func TestSetupLogging_BadLevel(t *testing.T) {
	if _, _, err := SetupLogging("chatty", ""); err == nil {
		t.Error("SetupLogging accepted an invalid level")
	}
}
