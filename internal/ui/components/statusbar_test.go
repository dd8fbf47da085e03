// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatpane/internal/ui/styles"
)

func newTestStatusBar(width int) *StatusBar {
	sb := NewStatusBar(styles.NewTheme(styles.ThemeDark))
	sb.SetWidth(width)
	sb.SetHints([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "send")),
		key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("C-n", "new chat")),
	})
	return sb
}

func TestStatusBar_ReadyShowsChatCount(t *testing.T) {
	sb := newTestStatusBar(80)

	assert.Contains(t, sb.View(""), "Ready")

	sb.Chats = 1
	assert.Contains(t, sb.View(""), "1 chat")

	sb.Chats = 3
	assert.Contains(t, sb.View(""), "3 chats")
}

func TestStatusBar_BusyShowsSpinner(t *testing.T) {
	sb := newTestStatusBar(80)
	sb.Chats = 2

	sb.SetStatus(StatusStreaming)
	view := sb.View("*")

	assert.Contains(t, view, "* Streaming...")
	assert.NotContains(t, view, "2 chats")
}

func TestStatusBar_ErrorUntilNextStatus(t *testing.T) {
	sb := newTestStatusBar(80)

	sb.SetError("request failed: boom")
	assert.Equal(t, StatusError, sb.Status)
	assert.Contains(t, sb.View(""), "request failed: boom")

	sb.SetStatus(StatusReady)
	assert.Empty(t, sb.Message)
	assert.NotContains(t, sb.View(""), "boom")
}

func TestStatusBar_LongErrorIsTruncated(t *testing.T) {
	sb := newTestStatusBar(40)
	sb.SetError(strings.Repeat("x", 200))

	view := sb.View("")
	assert.Equal(t, 40, lipgloss.Width(view))
	assert.Contains(t, view, "…")
}

func TestStatusBar_Hints(t *testing.T) {
	wide := newTestStatusBar(100)
	assert.Contains(t, wide.View(""), "new chat")
	assert.Equal(t, 100, lipgloss.Width(wide.View("")))

	narrow := newTestStatusBar(50)
	assert.NotContains(t, narrow.View(""), "new chat")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Ready", StatusReady.String())
	assert.Equal(t, "Saving...", StatusSaving.String())
	assert.Equal(t, "Unknown", Status(99).String())
	assert.True(t, StatusSending.Busy())
	assert.False(t, StatusError.Busy())
}
