// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatpane/internal/session"
	"github.com/jeranaias/chatpane/internal/storage"
	"github.com/jeranaias/chatpane/internal/ui/components"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

// opTimeout bounds controller operations started from the UI. Submit is
// not bounded; it lasts as long as the stream.
const opTimeout = 10 * time.Second

// focusArea identifies which pane receives key presses.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	Controller   *session.Controller
	Repository   storage.ChatRepository
	Theme        *styles.Theme
	Markdown     bool
	SidebarWidth int

	// StoreChanges, if set, delivers a value whenever another process
	// rewrites the store.
	StoreChanges <-chan struct{}

	Logger *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	ctrl      *session.Controller
	repo      storage.ChatRepository
	theme     *styles.Theme
	renderer  *components.MessageRenderer
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	logger    *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     KeyMap

	snap  session.Snapshot
	focus focusArea

	width        int
	height       int
	sidebarWidth int
	ready        bool

	status       string
	storeChanges <-chan struct{}
}

// New creates the model. The controller should already be loaded.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sidebarWidth := opts.SidebarWidth
	if sidebarWidth <= 0 {
		sidebarWidth = 28
	}

	input := textinput.New()
	input.Placeholder = "Send a message..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 0
	input.Focus()

	keys := DefaultKeyMap()
	statusBar := components.NewStatusBar(theme)
	statusBar.SetHints(keys.ShortHelp())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := Model{
		ctrl:         opts.Controller,
		repo:         opts.Repository,
		theme:        theme,
		renderer:     components.NewMessageRenderer(theme, opts.Markdown),
		sidebar:      components.NewSidebar(opts.Repository, theme),
		statusBar:    statusBar,
		logger:       logger.With("component", "tui"),
		viewport:     viewport.New(80, 20),
		input:        input,
		spinner:      sp,
		keys:         keys,
		focus:        focusInput,
		sidebarWidth: sidebarWidth,
		storeChanges: opts.StoreChanges,
	}
	m.apply(opts.Controller.Snapshot())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForStoreChange())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case SnapshotMsg:
		if msg.Snapshot.Seq >= m.snap.Seq {
			m.apply(msg.Snapshot)
		}
		return m, nil

	case SubmitDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, session.ErrEmptyInput) {
			m.status = msg.Err.Error()
			m.logger.Error("SUBMIT_FAILED", "error", msg.Err)
		}
		m.apply(m.ctrl.Snapshot())
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s: %v", msg.op, msg.err)
			m.logger.Error("OP_FAILED", "op", msg.op, "error", msg.err)
		}
		m.apply(m.ctrl.Snapshot())
		return m, nil

	case components.SelectChatMsg:
		id := msg.ID
		m.focusOn(focusInput)
		return m, m.op("select", func(ctx context.Context) error {
			return m.ctrl.Select(ctx, id)
		})

	case components.NewChatMsg:
		m.focusOn(focusInput)
		return m, m.newChat()

	case components.ChatsUpdatedMsg:
		// A NewChatMsg follows from the sidebar if the current chat went away.
		m.ctrl.ReplaceChats(msg.Chats)
		m.apply(m.ctrl.Snapshot())
		return m, nil

	case components.ChatDeletedMsg:
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd

	case components.SidebarErrMsg:
		m.status = msg.Err.Error()
		return m, nil

	case StoreChangedMsg:
		return m, tea.Batch(m.reloadChats(), m.waitForStoreChange())

	case chatsReloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		if msg.rev != m.ctrl.Snapshot().Revision {
			// A local write landed after the read began.
			m.logger.Debug("RELOAD_STALE", "rev", msg.rev)
			return m, m.reloadChats()
		}
		gone := m.ctrl.ReplaceChats(msg.chats)
		m.apply(m.ctrl.Snapshot())
		if gone {
			return m, m.newChat()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusInput {
			m.focusOn(focusSidebar)
		} else {
			m.focusOn(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		if m.snap.Phase.Busy() {
			return m, nil
		}
		m.focusOn(focusInput)
		return m, m.newChat()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	if m.snap.Phase.Busy() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		m.status = ""
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if err := m.ctrl.SetInput(m.input.Value()); err == nil {
		m.apply(m.ctrl.Snapshot())
	}
	return m, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

// submit starts a send cycle. The controller rejects empty input itself.
func (m Model) submit() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return SubmitDoneMsg{Err: ctrl.Submit(context.Background())}
	}
}

func (m Model) newChat() tea.Cmd {
	return m.op("new chat", func(ctx context.Context) error {
		_, err := m.ctrl.NewChat(ctx)
		return err
	})
}

func (m Model) op(name string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opDoneMsg{op: name, err: fn(ctx)}
	}
}

func (m Model) reloadChats() tea.Cmd {
	repo := m.repo
	rev := m.ctrl.Snapshot().Revision
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		chats, err := repo.GetChats(ctx)
		return chatsReloadedMsg{chats: chats, err: err, rev: rev}
	}
}

func (m Model) waitForStoreChange() tea.Cmd {
	if m.storeChanges == nil {
		return nil
	}
	ch := m.storeChanges
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return StoreChangedMsg{}
	}
}

// =============================================================================
// STATE SYNC
// =============================================================================

// apply renders a controller snapshot into the view components.
func (m *Model) apply(s session.Snapshot) {
	m.snap = s
	busy := s.Phase.Busy()

	m.sidebar.SetChats(s.Chats, s.CurrentID())
	m.sidebar.SetBusy(busy)

	if m.input.Value() != s.Input {
		m.input.SetValue(s.Input)
	}
	if busy {
		m.input.Blur()
	} else if m.focus == focusInput {
		m.input.Focus()
	}

	if s.LastError != "" {
		m.status = "request failed: " + s.LastError
	}

	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	waiting := m.snap.Phase == session.PhaseSending || m.snap.Phase == session.PhaseStreaming
	m.viewport.SetContent(m.renderer.RenderConversation(m.snap.Current, m.snap.Streaming, waiting, m.viewport.Width))
	if atBottom || m.snap.Phase.Busy() {
		m.viewport.GotoBottom()
	}
}

func (m *Model) focusOn(area focusArea) {
	m.focus = area
	if area == focusSidebar {
		m.input.Blur()
		m.sidebar.Focus()
		return
	}
	m.sidebar.Blur()
	if !m.snap.Phase.Busy() {
		m.input.Focus()
	}
}

// layout sizes the panes for the current window.
func (m *Model) layout() {
	sidebarWidth := m.sidebarWidth
	if sidebarWidth > m.width/2 {
		sidebarWidth = m.width / 2
	}
	m.sidebar.SetSize(sidebarWidth, m.height-1)
	m.statusBar.SetWidth(m.width)

	mainWidth := m.width - sidebarWidth
	if mainWidth < 10 {
		mainWidth = 10
	}
	// header (1) + input container (2) + status bar (1)
	vpHeight := m.height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = vpHeight
	m.input.Width = mainWidth - 6

	m.refreshViewport()
}

// Snapshot returns the snapshot currently rendered.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// Status returns the current status line message.
func (m Model) Status() string {
	return m.status
}
