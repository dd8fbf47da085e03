// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/storage"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestSidebar(t *testing.T, titles ...string) (*Sidebar, *storage.ChatStore, []model.Conversation) {
	t.Helper()
	store := storage.NewChatStore(storage.NewMemorySubstrate(), nil)

	var chats []model.Conversation
	for i, title := range titles {
		conv := model.NewConversation()
		conv.Title = title
		conv.CreatedAt = time.Now().Add(-time.Duration(i) * time.Minute)
		require.NoError(t, store.SaveChat(context.Background(), conv))
		chats = append(chats, conv)
	}

	sb := NewSidebar(store, styles.NewTheme(styles.ThemeDark))
	sb.SetSize(30, 20)
	if len(chats) > 0 {
		sb.SetChats(chats, chats[0].ID)
	}
	return sb, store, chats
}

func TestSidebar_ViewListsTitles(t *testing.T) {
	sb, _, _ := newTestSidebar(t, "First chat", "A very long conversation title that does not fit")

	view := sb.View()
	assert.Contains(t, view, "First chat")
	assert.Contains(t, view, "…")
	assert.NotContains(t, view, "does not fit")
	assert.Contains(t, view, "New chat")
}

func TestSidebar_Empty(t *testing.T) {
	sb, _, _ := newTestSidebar(t)
	assert.Contains(t, sb.View(), "No conversations")

	sb.Focus()
	_, cmd := sb.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestSidebar_Select(t *testing.T) {
	sb, _, chats := newTestSidebar(t, "one", "two", "three")
	sb.Focus()

	sb, _ = sb.Update(tea.KeyMsg{Type: tea.KeyDown})
	sb, cmd := sb.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectChatMsg{ID: chats[1].ID}, cmd())
	assert.Equal(t, 1, sb.Cursor())
}

func TestSidebar_CursorBounds(t *testing.T) {
	sb, _, _ := newTestSidebar(t, "one", "two")
	sb.Focus()

	sb.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, sb.Cursor())
	sb.Update(runes("j"))
	sb.Update(runes("j"))
	assert.Equal(t, 1, sb.Cursor())
}

func TestSidebar_NewChat(t *testing.T) {
	sb, _, _ := newTestSidebar(t, "one")
	sb.Focus()

	_, cmd := sb.Update(runes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, NewChatMsg{}, cmd())
}

func TestSidebar_IgnoresKeysWhenBlurred(t *testing.T) {
	sb, _, _ := newTestSidebar(t, "one")

	_, cmd := sb.Update(runes("d"))
	assert.Nil(t, cmd)
}

func TestSidebar_DeleteCurrent(t *testing.T) {
	sb, store, chats := newTestSidebar(t, "current", "other")
	sb.Focus()
	require.Equal(t, 0, sb.Cursor())

	_, cmd := sb.Update(runes("d"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(ChatDeletedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.True(t, msg.WasCurrent)
	require.Len(t, msg.Chats, 1)
	assert.Equal(t, chats[1].ID, msg.Chats[0].ID)

	intents := msg.Intents()
	require.Len(t, intents, 2)
	assert.Equal(t, ChatsUpdatedMsg{Chats: msg.Chats}, intents[0])
	assert.Equal(t, NewChatMsg{}, intents[1])

	_, err := store.GetChat(context.Background(), chats[0].ID)
	assert.ErrorIs(t, err, storage.ErrChatNotFound)
}

func TestSidebar_DeleteOtherNeverSelects(t *testing.T) {
	sb, _, chats := newTestSidebar(t, "current", "other")
	sb.Focus()
	sb.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := sb.Update(runes("x"))
	require.NotNil(t, cmd)
	msg := cmd().(ChatDeletedMsg)
	assert.Equal(t, chats[1].ID, msg.ID)
	assert.False(t, msg.WasCurrent)

	intents := msg.Intents()
	require.Len(t, intents, 1)
	for _, in := range intents {
		_, isSelect := in.(SelectChatMsg)
		assert.False(t, isSelect)
	}

	sb.Update(msg)
	assert.NotContains(t, sb.View(), "other")
}

func TestSidebar_BusyBlocksActions(t *testing.T) {
	sb, _, _ := newTestSidebar(t, "one")
	sb.Focus()
	sb.SetBusy(true)

	for _, k := range []tea.KeyMsg{runes("d"), runes("n"), {Type: tea.KeyEnter}} {
		_, cmd := sb.Update(k)
		assert.Nil(t, cmd, "key %s", k.String())
	}
}

func TestSidebar_HighlightsCurrent(t *testing.T) {
	sb, _, chats := newTestSidebar(t, "alpha", "beta")
	sb.SetChats(chats, chats[1].ID)

	var betaLine string
	for _, line := range strings.Split(sb.View(), "\n") {
		if strings.Contains(line, "beta") {
			betaLine = line
		}
	}
	assert.NotEmpty(t, betaLine)
}

func TestChatDeletedMsg_Error(t *testing.T) {
	intents := ChatDeletedMsg{Err: storage.ErrUnavailable}.Intents()
	require.Len(t, intents, 1)
	assert.IsType(t, SidebarErrMsg{}, intents[0])
}
