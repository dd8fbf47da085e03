// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpane/internal/session"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordingSender) last() (SnapshotMsg, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return SnapshotMsg{}, false
	}
	msg, ok := r.msgs[len(r.msgs)-1].(SnapshotMsg)
	return msg, ok
}

func TestSnapshotForwarder_DeliversNewest(t *testing.T) {
	fwd := NewSnapshotForwarder(30)
	sender := &recordingSender{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fwd.Run(ctx, sender)

	for i := uint64(1); i <= 50; i++ {
		fwd.Observe(session.Snapshot{Seq: i, Streaming: "x"})
	}

	require.Eventually(t, func() bool {
		msg, ok := sender.last()
		return ok && msg.Snapshot.Seq == 50
	}, 2*time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	n := len(sender.msgs)
	sender.mu.Unlock()
	assert.Less(t, n, 50, "burst should be coalesced")
}

func TestSnapshotForwarder_StopsOnCancel(t *testing.T) {
	fwd := NewSnapshotForwarder(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		fwd.Run(ctx, &recordingSender{})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
