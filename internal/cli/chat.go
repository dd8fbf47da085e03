// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat loop for `chatpane chat`.
//
// The loop drives the same session.Controller as the TUI, so persistence
// and the send cycle behave identically. Streaming increments are printed
// as they arrive.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/session"
)

// HistoryFileName stores line-editing history in the data directory.
const HistoryFileName = "repl_history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input per prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed reader. History is loaded from and saved
// to <dataDir>/repl_history when dataDir is not empty.
func NewChatCLI(dataDir string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line}
	if dataDir != "" {
		c.historyFile = filepath.Join(dataDir, HistoryFileName)
		if f, err := os.Open(c.historyFile); err == nil {
			c.line.ReadHistory(f)
			f.Close()
		}
	}
	return c
}

// Prompt reads a line and records non-empty input in history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	if c.historyFile != "" {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	return c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat loop.
type REPL struct {
	ctrl *session.Controller
	in   LineReader
	out  io.Writer

	mu      sync.Mutex
	printed int
}

// NewREPL creates a loop over ctrl. The controller should already be loaded.
func NewREPL(ctrl *session.Controller, in LineReader, out io.Writer) *REPL {
	return &REPL{ctrl: ctrl, in: in, out: out}
}

// Run reads commands and messages until /quit, EOF or Ctrl+C at the prompt.
func (r *REPL) Run(ctx context.Context) error {
	unsubscribe := r.ctrl.Subscribe(r.observe)
	defer unsubscribe()

	fmt.Fprintln(r.out, infoStyle.Render("chatpane "+Version+". Type /help for commands."))
	r.printCurrent()

	for {
		line, err := r.in.Prompt(promptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		cont, err := r.Handle(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if !cont {
			return nil
		}
	}
}

// Handle processes one input line. It returns false when the loop should end.
func (r *REPL) Handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}
	if !strings.HasPrefix(line, "/") {
		return true, r.send(ctx, line)
	}

	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		return false, nil

	case "/help", "/?":
		r.printHelp()

	case "/new":
		if _, err := r.ctrl.NewChat(ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(r.out, infoStyle.Render("Started a new chat."))

	case "/list", "/ls":
		r.printList()

	case "/open":
		id, err := r.chatAt(arg)
		if err != nil {
			return true, err
		}
		if err := r.ctrl.Select(ctx, id); err != nil {
			return true, err
		}
		r.printCurrent()

	case "/delete", "/rm":
		id, err := r.chatAt(arg)
		if err != nil {
			return true, err
		}
		if err := r.ctrl.Delete(ctx, id); err != nil {
			return true, err
		}
		fmt.Fprintln(r.out, infoStyle.Render("Deleted."))

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
	return true, nil
}

// send runs one send cycle to completion. A cycle in flight cannot be
// aborted; quitting the program is the only way out.
func (r *REPL) send(ctx context.Context, text string) error {
	if err := r.ctrl.SetInput(text); err != nil {
		return err
	}

	r.mu.Lock()
	r.printed = 0
	r.mu.Unlock()

	fmt.Fprint(r.out, assistantLabelStyle.Render(model.RoleAssistant.DisplayName()+":")+" ")
	err := r.ctrl.Submit(ctx)
	fmt.Fprintln(r.out)
	if err != nil {
		return err
	}

	if msg := r.ctrl.Snapshot().LastError; msg != "" {
		return errors.New("request failed: " + msg)
	}
	return nil
}

// observe prints the part of the streaming buffer not yet shown. It runs on
// the goroutine that drives Submit.
func (r *REPL) observe(s session.Snapshot) {
	if s.Phase != session.PhaseStreaming {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(s.Streaming) > r.printed {
		io.WriteString(r.out, s.Streaming[r.printed:])
		r.printed = len(s.Streaming)
	}
}

func (r *REPL) chatAt(arg string) (string, error) {
	chats := r.ctrl.Snapshot().Chats
	i, err := ParseIndex(arg, len(chats))
	if err != nil {
		return "", err
	}
	return chats[i].ID, nil
}

func (r *REPL) printList() {
	snap := r.ctrl.Snapshot()
	if len(snap.Chats) == 0 {
		fmt.Fprintln(r.out, infoStyle.Render("No conversations."))
		return
	}
	for i, c := range snap.Chats {
		line := fmt.Sprintf("%3d. %s (%d messages)", i+1, c.Title, c.MessageCount())
		if c.ID == snap.CurrentID() {
			fmt.Fprintln(r.out, currentStyle.Render(line+" *"))
			continue
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *REPL) printCurrent() {
	conv := r.ctrl.Snapshot().Current
	if conv == nil {
		return
	}
	fmt.Fprintln(r.out, infoStyle.Render("== "+conv.Title+" =="))
	PrintTranscript(r.out, *conv)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "/new         start a new conversation")
	fmt.Fprintln(r.out, "/list        list conversations")
	fmt.Fprintln(r.out, "/open N      open conversation N")
	fmt.Fprintln(r.out, "/delete N    delete conversation N")
	fmt.Fprintln(r.out, "/quit        exit")
}

// PrintTranscript writes every message of conv with a role label.
func PrintTranscript(w io.Writer, conv model.Conversation) {
	for _, msg := range conv.Messages {
		label := userLabelStyle
		if msg.Role == model.RoleAssistant {
			label = assistantLabelStyle
		}
		fmt.Fprintf(w, "%s %s\n", label.Render(msg.Role.DisplayName()+":"), msg.Content)
	}
}
