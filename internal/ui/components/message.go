// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

const (
	// streamingCursor trails the in-progress reply.
	streamingCursor = "▍"

	// minBubbleWidth keeps bubbles readable in narrow panes.
	minBubbleWidth = 12
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// RenderMessage renders msg as a bubble in a pane of the given width.
// User messages sit on the right in a cyan bubble; assistant messages sit
// on the left in a purple bubble. Content is word wrapped.
func RenderMessage(msg model.Message, width int, theme *styles.Theme) string {
	return renderBubble(msg.Role, wordWrap(msg.Content, contentWidth(width)), width, theme, false)
}

// RenderStreaming renders the in-progress reply as an assistant bubble with
// a streaming marker.
func RenderStreaming(content string, width int, theme *styles.Theme) string {
	return renderBubble(model.RoleAssistant, wordWrap(content, contentWidth(width)), width, theme, true)
}

// MessageRenderer renders messages, optionally formatting assistant replies
// as markdown with glamour. Glamour renderers are cached per width.
type MessageRenderer struct {
	theme    *styles.Theme
	markdown bool

	mu        sync.Mutex
	glam      *glamour.TermRenderer
	glamWidth int
}

// NewMessageRenderer creates a renderer.
func NewMessageRenderer(theme *styles.Theme, markdown bool) *MessageRenderer {
	return &MessageRenderer{theme: theme, markdown: markdown}
}

// Render renders one persisted message.
func (r *MessageRenderer) Render(msg model.Message, width int) string {
	if !r.markdown || msg.Role != model.RoleAssistant || msg.Content == "" {
		return RenderMessage(msg, width, r.theme)
	}
	body, ok := r.renderMarkdown(msg.Content, contentWidth(width))
	if !ok {
		return RenderMessage(msg, width, r.theme)
	}
	return renderBubble(msg.Role, body, width, r.theme, false)
}

// RenderConversation renders every message of conv followed by the
// in-progress reply, if any. A nil or empty conversation renders a hint.
func (r *MessageRenderer) RenderConversation(conv *model.Conversation, streaming string, waiting bool, width int) string {
	var parts []string
	if conv != nil {
		for _, msg := range conv.Messages {
			parts = append(parts, r.Render(msg, width))
		}
	}
	// Streaming is shown as plain text; markdown is applied once finalized.
	if streaming != "" || waiting {
		parts = append(parts, RenderStreaming(streaming, width, r.theme))
	}

	if len(parts) == 0 {
		return r.theme.EmptyState.Width(width).Render("No messages yet. Type below and press Enter.")
	}
	return strings.Join(parts, "\n")
}

func (r *MessageRenderer) renderMarkdown(content string, width int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.glam == nil || r.glamWidth != width {
		glam, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		r.glam = glam
		r.glamWidth = width
	}

	out, err := r.glam.Render(content)
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}

// ==========================================================================
// BUBBLES
// ==========================================================================

func renderBubble(role model.Role, body string, width int, theme *styles.Theme, streaming bool) string {
	label := theme.RoleLabel.Render(strings.ToLower(role.DisplayName()))

	if streaming {
		label += " " + theme.StreamingMarker.Render("● streaming")
		if body == "" {
			body = "..."
		}
		body += streamingCursor
	}
	if body == "" {
		body = " "
	}

	style := theme.AssistantBubble
	align := lipgloss.Left
	if role == model.RoleUser {
		style = theme.UserBubble
		align = lipgloss.Right
	}

	bubble := style.Render(body)
	block := lipgloss.JoinVertical(align, label, bubble)
	if width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(width, align, block)
}

// contentWidth is the text width available inside a bubble: three quarters
// of the pane minus border and padding.
func contentWidth(width int) int {
	w := width*3/4 - 4
	if w < minBubbleWidth {
		w = minBubbleWidth
	}
	return w
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified display width.
// Words longer than width are broken.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := ""
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if currentLine != "" {
					result.WriteString(currentLine)
					result.WriteString("\n")
					currentLine = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					break
				}
				result.WriteString(head)
				result.WriteString("\n")
				word = word[len(head):]
			}

			switch {
			case currentLine == "":
				currentLine = word
			case runewidth.StringWidth(currentLine)+1+runewidth.StringWidth(word) <= width:
				currentLine += " " + word
			default:
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return strings.TrimSuffix(result.String(), "\n")
}
