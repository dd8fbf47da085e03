// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jeranaias/chatpane/internal/model"
	"github.com/jeranaias/chatpane/internal/session"
	"github.com/jeranaias/chatpane/internal/storage"
)

// scriptedReader returns lines in order, then io.EOF.
type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type chunkStreamer struct {
	chunks []string
	err    error
}

func (s chunkStreamer) ChatStream(ctx context.Context, messages []model.Message, callback func(string)) error {
	for _, c := range s.chunks {
		callback(c)
	}
	return s.err
}

// ctxStreamer records whether the request context could be cancelled.
type ctxStreamer struct {
	cancellable *bool
}

func (s ctxStreamer) ChatStream(ctx context.Context, messages []model.Message, callback func(string)) error {
	*s.cancellable = ctx.Done() != nil
	callback("ok")
	return nil
}

func newTestREPL(t *testing.T, streamer session.Streamer, lines ...string) (*REPL, *storage.ChatStore, *bytes.Buffer) {
	t.Helper()
	store := storage.NewChatStore(storage.NewMemorySubstrate(), nil)
	ctrl := session.NewController(store, streamer, nil)
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := &bytes.Buffer{}
	return NewREPL(ctrl, &scriptedReader{lines: lines}, out), store, out
}

func TestREPL_SendStreamsAndPersists(t *testing.T) {
	repl, store, out := newTestREPL(t, chunkStreamer{chunks: []string{"Hel", "lo ", "world"}}, "Hi there")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "Assistant: Hello world") {
		t.Errorf("output missing streamed reply:\n%s", out.String())
	}

	chats, err := store.GetChats(context.Background())
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || len(chats[0].Messages) != 2 {
		t.Fatalf("stored %+v, want one chat with two messages", chats)
	}
	if chats[0].Messages[1].Content != "Hello world" {
		t.Errorf("assistant content = %q", chats[0].Messages[1].Content)
	}
}

func TestREPL_StreamErrorIsReported(t *testing.T) {
	repl, store, out := newTestREPL(t, chunkStreamer{err: errors.New("endpoint down")}, "Hi")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "endpoint down") {
		t.Errorf("output missing error:\n%s", out.String())
	}

	chats, _ := store.GetChats(context.Background())
	if len(chats) != 1 || len(chats[0].Messages) != 1 {
		t.Errorf("user message should stay persisted alone, got %+v", chats)
	}
}

func TestREPL_Commands(t *testing.T) {
	repl, store, out := newTestREPL(t, chunkStreamer{chunks: []string{"ok"}},
		"first question",
		"/new",
		"/list",
		"/open 2",
		"/delete 1",
		"/list",
		"/quit",
		"never read",
	)

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Started a new chat.", "first question (2 messages)", "Deleted."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	chats, _ := store.GetChats(context.Background())
	if len(chats) != 1 {
		t.Fatalf("got %d chats, want 1", len(chats))
	}
	if chats[0].Title != "first question" {
		t.Errorf("remaining chat = %q, want the opened one", chats[0].Title)
	}
}

func TestREPL_HandleErrors(t *testing.T) {
	repl, _, _ := newTestREPL(t, chunkStreamer{})
	ctx := context.Background()

	for _, line := range []string{"/open", "/open 9", "/delete x", "/bogus"} {
		cont, err := repl.Handle(ctx, line)
		if err == nil {
			t.Errorf("Handle(%q) succeeded, want error", line)
		}
		if !cont {
			t.Errorf("Handle(%q) ended the loop", line)
		}
	}

	if cont, err := repl.Handle(ctx, "   "); err != nil || !cont {
		t.Errorf("blank line: cont=%v err=%v", cont, err)
	}
	if cont, _ := repl.Handle(ctx, "/exit"); cont {
		t.Error("/exit should end the loop")
	}
}

func TestPrintTranscript(t *testing.T) {
	conv := model.NewConversation().
		WithMessage(model.NewUserMessage("ping")).
		WithMessage(model.NewAssistantMessage("pong"))

	var buf bytes.Buffer
	PrintTranscript(&buf, conv)

	want := "You: ping\nAssistant: pong\n"
	if buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

func TestREPL_SendIsNotCancellable(t *testing.T) {
	var cancellable bool
	repl, _, _ := newTestREPL(t, ctxStreamer{cancellable: &cancellable})

	if _, err := repl.Handle(context.Background(), "hello"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if cancellable {
		t.Error("send must not attach its own cancellation to the request")
	}
}
