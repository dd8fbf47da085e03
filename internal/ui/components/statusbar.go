// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is what the status bar reports on its left side.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusStreaming
	StatusSaving
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSending:
		return "Waiting for reply..."
	case StatusStreaming:
		return "Streaming..."
	case StatusSaving:
		return "Saving..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Busy reports whether the status shows the spinner.
func (s Status) Busy() bool {
	return s == StatusSending || s == StatusStreaming || s == StatusSaving
}

// StatusBar is the bottom line: status on the left, key hints on the right.
type StatusBar struct {
	Width   int
	Status  Status
	Message string
	Chats   int

	theme *styles.Theme
	hints []key.Binding
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, Status: StatusReady}
}

// SetWidth sets the rendered width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus sets the status and clears any message.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
	s.Message = ""
}

// SetError shows msg as an error until the next SetStatus.
func (s *StatusBar) SetError(msg string) {
	s.Status = StatusError
	s.Message = msg
}

// SetHints sets the key bindings listed on the right.
func (s *StatusBar) SetHints(bindings []key.Binding) {
	s.hints = bindings
}

// View renders the bar. spinner is shown while the status is busy.
func (s *StatusBar) View(spinner string) string {
	avail := s.Width - 2
	left := s.renderStatus(spinner, avail)

	// Narrow terminals drop the hints before the status.
	right := ""
	if s.Width >= 60 {
		right = s.renderHints()
	}

	if lipgloss.Width(left)+lipgloss.Width(right)+1 > avail {
		right = ""
	}

	gap := avail - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderStatus(spinner string, avail int) string {
	switch {
	case s.Status == StatusError:
		text := s.Status.String()
		if s.Message != "" {
			text = s.Message
		}
		if avail > 0 {
			text = runewidth.Truncate(text, avail, "…")
		}
		return s.theme.ErrorText.Render(text)
	case s.Status.Busy():
		return spinner + " " + s.Status.String()
	case s.Chats == 1:
		return "1 chat"
	case s.Chats > 1:
		return strconv.Itoa(s.Chats) + " chats"
	}
	return s.Status.String()
}

func (s *StatusBar) renderHints() string {
	parts := make([]string, 0, len(s.hints))
	for _, b := range s.hints {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, s.theme.ShortcutKey.Render(h.Key)+" "+s.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
