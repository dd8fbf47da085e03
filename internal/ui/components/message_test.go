// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

func TestRenderMessage_Alignment(t *testing.T) {
	theme := styles.NewTheme(styles.ThemeDark)

	user := strings.Split(RenderMessage(model.NewUserMessage("hi there"), 60, theme), "\n")
	assistant := strings.Split(RenderMessage(model.NewAssistantMessage("hello"), 60, theme), "\n")

	require.NotEmpty(t, user)
	require.NotEmpty(t, assistant)
	assert.True(t, strings.HasPrefix(user[0], " "), "user bubble should be pushed right")
	assert.False(t, strings.HasPrefix(assistant[0], " "), "assistant bubble should start at the left edge")
	assert.Contains(t, user[0], "you")
	assert.Contains(t, assistant[0], "assistant")
}

func TestRenderMessage_FitsWidth(t *testing.T) {
	theme := styles.NewTheme(styles.ThemeDark)
	long := strings.Repeat("lorem ipsum dolor sit amet ", 20)

	out := RenderMessage(model.NewAssistantMessage(long), 50, theme)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 50, "line %q overflows", line)
	}
	assert.Contains(t, out, "lorem")
}

func TestRenderStreaming(t *testing.T) {
	theme := styles.NewTheme(styles.ThemeDark)

	out := RenderStreaming("Hello wor", 60, theme)
	assert.Contains(t, out, "Hello wor")
	assert.Contains(t, out, "streaming")
	assert.Contains(t, out, streamingCursor)

	empty := RenderStreaming("", 60, theme)
	assert.Contains(t, empty, "...")
}

func TestMessageRenderer_Conversation(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme(styles.ThemeDark), false)

	assert.Contains(t, r.RenderConversation(nil, "", false, 60), "No messages yet")

	conv := model.NewConversation().
		WithMessage(model.NewUserMessage("question")).
		WithMessage(model.NewAssistantMessage("answer"))
	out := r.RenderConversation(&conv, "partial", true, 60)

	qi := strings.Index(out, "question")
	ai := strings.Index(out, "answer")
	pi := strings.Index(out, "partial")
	require.True(t, qi >= 0 && ai >= 0 && pi >= 0, out)
	assert.Less(t, qi, ai)
	assert.Less(t, ai, pi)
}

func TestMessageRenderer_WaitingWithoutText(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme(styles.ThemeDark), false)
	conv := model.NewConversation().WithMessage(model.NewUserMessage("q"))

	out := r.RenderConversation(&conv, "", true, 60)
	assert.Contains(t, out, "streaming")
}

func TestMessageRenderer_Markdown(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme(styles.ThemeDark), true)

	out := r.Render(model.NewAssistantMessage("# Title\n\nsome **bold** text"), 70)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")

	// User messages are never run through markdown.
	user := r.Render(model.NewUserMessage("**raw**"), 70)
	assert.Contains(t, user, "**raw**")
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "hello world", 20, "hello world"},
		{"wraps", "hello world", 5, "hello\nworld"},
		{"keeps newlines", "a\nb", 10, "a\nb"},
		{"breaks long word", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"wide runes", "日本語テキスト", 6, "日本語\nテキス\nト"},
		{"zero width", "as is", 0, "as is"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wordWrap(tt.text, tt.width))
		})
	}
}
