// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/session"
	"github.com/jeranaias/chatpane/internal/ui/components"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.theme.InputContainer.Width(m.viewport.Width).Render(m.input.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := model.DefaultTitle
	if m.snap.Current != nil {
		title = m.snap.Current.Title
	}
	title = runewidth.Truncate(title, m.viewport.Width-2, "…")
	return m.theme.Header.Render(title)
}

func (m Model) renderStatusBar() string {
	sb := m.statusBar
	switch {
	case m.snap.Phase == session.PhaseSending:
		sb.SetStatus(components.StatusSending)
	case m.snap.Phase == session.PhaseStreaming:
		sb.SetStatus(components.StatusStreaming)
	case m.snap.Phase.Busy():
		sb.SetStatus(components.StatusSaving)
	case m.status != "":
		sb.SetError(m.status)
	default:
		sb.SetStatus(components.StatusReady)
	}
	sb.Chats = len(m.snap.Chats)
	return sb.View(m.spinner.View())
}
