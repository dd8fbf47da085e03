// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/storage"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

// sidebarTimeout bounds a delete-and-reload round trip.
const sidebarTimeout = 5 * time.Second

// =============================================================================
// SIDEBAR MESSAGES
// =============================================================================

// SelectChatMsg asks the view to open a conversation.
type SelectChatMsg struct {
	ID string
}

// NewChatMsg asks the view to start a new conversation.
type NewChatMsg struct{}

// ChatsUpdatedMsg carries the authoritative collection after a change.
type ChatsUpdatedMsg struct {
	Chats []model.Conversation
}

// SidebarErrMsg reports a failed sidebar action.
type SidebarErrMsg struct {
	Err error
}

// ChatDeletedMsg is the result of a delete started by the sidebar.
type ChatDeletedMsg struct {
	ID         string
	Chats      []model.Conversation
	WasCurrent bool
	Err        error
}

// Intents returns the messages the sidebar emits for this result, in order.
func (m ChatDeletedMsg) Intents() []tea.Msg {
	if m.Err != nil {
		return []tea.Msg{SidebarErrMsg{Err: m.Err}}
	}
	intents := []tea.Msg{ChatsUpdatedMsg{Chats: m.Chats}}
	if m.WasCurrent {
		intents = append(intents, NewChatMsg{})
	}
	return intents
}

// =============================================================================
// SIDEBAR KEYS
// =============================================================================

// SidebarKeyMap defines the sidebar key bindings.
type SidebarKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	New    key.Binding
	Delete key.Binding
}

// DefaultSidebarKeyMap returns the default sidebar bindings.
func DefaultSidebarKeyMap() SidebarKeyMap {
	return SidebarKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x", "delete"),
			key.WithHelp("d/x", "delete"),
		),
	}
}

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar lists conversations. It emits SelectChatMsg, NewChatMsg and
// ChatsUpdatedMsg; deleting a row goes through the repository directly.
type Sidebar struct {
	repo  storage.ChatRepository
	theme *styles.Theme
	keys  SidebarKeyMap

	chats     []model.Conversation
	currentID string
	cursor    int
	offset    int

	width   int
	height  int
	focused bool
	busy    bool
}

// NewSidebar creates a sidebar backed by repo.
func NewSidebar(repo storage.ChatRepository, theme *styles.Theme) *Sidebar {
	return &Sidebar{
		repo:   repo,
		theme:  theme,
		keys:   DefaultSidebarKeyMap(),
		width:  28,
		height: 20,
	}
}

// SetChats replaces the listed conversations and the highlighted one.
func (s *Sidebar) SetChats(chats []model.Conversation, currentID string) {
	s.chats = chats
	s.currentID = currentID
	s.clampCursor()
}

// SetSize sets the outer dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.clampCursor()
}

// SetBusy disables selection and deletion while a reply streams.
func (s *Sidebar) SetBusy(busy bool) {
	s.busy = busy
}

// Focus gives the sidebar keyboard focus and puts the cursor on the
// current conversation.
func (s *Sidebar) Focus() {
	s.focused = true
	for i, c := range s.chats {
		if c.ID == s.currentID {
			s.cursor = i
			break
		}
	}
	s.clampCursor()
}

// Blur removes keyboard focus.
func (s *Sidebar) Blur() {
	s.focused = false
}

// Cursor returns the index of the cursor row.
func (s *Sidebar) Cursor() int {
	return s.cursor
}

// Keys returns the sidebar key bindings for help text.
func (s *Sidebar) Keys() SidebarKeyMap {
	return s.keys
}

// Update handles key presses while focused and delete results.
func (s *Sidebar) Update(msg tea.Msg) (*Sidebar, tea.Cmd) {
	switch msg := msg.(type) {
	case ChatDeletedMsg:
		if msg.Err == nil {
			s.SetChats(msg.Chats, s.currentID)
		}
		return s, emit(msg.Intents()...)

	case tea.KeyMsg:
		if !s.focused {
			return s, nil
		}
		switch {
		case key.Matches(msg, s.keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
			s.clampCursor()
		case key.Matches(msg, s.keys.Down):
			if s.cursor < len(s.chats)-1 {
				s.cursor++
			}
			s.clampCursor()
		case key.Matches(msg, s.keys.New):
			if s.busy {
				return s, nil
			}
			return s, emit(NewChatMsg{})
		case key.Matches(msg, s.keys.Select):
			if s.busy || len(s.chats) == 0 {
				return s, nil
			}
			return s, emit(SelectChatMsg{ID: s.chats[s.cursor].ID})
		case key.Matches(msg, s.keys.Delete):
			if s.busy || len(s.chats) == 0 {
				return s, nil
			}
			return s, s.DeleteCmd(s.chats[s.cursor].ID)
		}
	}
	return s, nil
}

// DeleteCmd deletes id through the repository and re-reads the collection.
// It never selects the deleted row.
func (s *Sidebar) DeleteCmd(id string) tea.Cmd {
	repo := s.repo
	wasCurrent := id == s.currentID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sidebarTimeout)
		defer cancel()

		if err := repo.DeleteChat(ctx, id); err != nil {
			return ChatDeletedMsg{ID: id, Err: err}
		}
		chats, err := repo.GetChats(ctx)
		if err != nil {
			return ChatDeletedMsg{ID: id, Err: err}
		}
		return ChatDeletedMsg{ID: id, Chats: chats, WasCurrent: wasCurrent}
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := s.width - 2
	if inner < 4 {
		inner = 4
	}

	lines := []string{
		s.theme.SidebarTitle.Render("Chats"),
		s.theme.SidebarNewButton.Render(runewidth.Truncate("+ New chat (n)", inner-2, "…")),
	}

	rows := s.visibleRows()
	if len(s.chats) == 0 {
		lines = append(lines, s.theme.SidebarMeta.Render("No conversations"))
	}
	for i := s.offset; i < s.offset+rows && i < len(s.chats); i++ {
		lines = append(lines, s.renderRow(i, inner))
	}

	pane := s.theme.Pane
	if s.focused {
		pane = s.theme.PaneFocused
	}
	return pane.
		Width(inner).
		Height(maxInt(s.height-2, 1)).
		Render(strings.Join(lines, "\n"))
}

func (s *Sidebar) renderRow(i, width int) string {
	conv := s.chats[i]
	isCursor := s.focused && i == s.cursor

	// Padding(0,1) on row styles takes two columns.
	avail := width - 2
	suffix := ""
	if isCursor && !s.busy {
		suffix = " " + s.theme.SidebarDelete.Render("x")
		avail -= 2
	}

	title := conv.Title
	if title == "" {
		title = model.DefaultTitle
	}
	title = runewidth.Truncate(title, avail, "…")
	title = runewidth.FillRight(title, avail)

	style := s.theme.SidebarItem
	switch {
	case conv.ID == s.currentID:
		style = s.theme.SidebarItemCurrent
	case isCursor:
		style = s.theme.SidebarItemCursor
	}
	return style.Render(title + suffix)
}

// visibleRows is the number of conversation rows that fit. It also scrolls
// the window so the cursor stays visible.
func (s *Sidebar) visibleRows() int {
	rows := s.height - 4 // border plus title and new-chat lines
	if rows < 1 {
		rows = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	return rows
}

func (s *Sidebar) clampCursor() {
	if s.cursor >= len(s.chats) {
		s.cursor = len(s.chats) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.offset > s.cursor {
		s.offset = s.cursor
	}
}

// emit returns a command delivering msgs in order.
func emit(msgs ...tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(msgs))
	for _, m := range msgs {
		m := m
		cmds = append(cmds, func() tea.Msg { return m })
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Sequence(cmds...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
