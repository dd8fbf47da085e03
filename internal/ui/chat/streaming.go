// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatpane/internal/session"
)

// Sender is the part of *tea.Program the forwarder uses.
type Sender interface {
	Send(msg tea.Msg)
}

// =============================================================================
// SNAPSHOT FORWARDER
// =============================================================================

// SnapshotForwarder hands controller snapshots to the Bubble Tea program.
//
// Observe never blocks: it replaces the pending snapshot and wakes Run.
// Run sends at most maxFPS snapshots per second. Intermediate snapshots may
// be skipped but the newest one is always delivered.
type SnapshotForwarder struct {
	mu      sync.Mutex
	latest  session.Snapshot
	pending bool
	wake    chan struct{}

	minInterval time.Duration
}

// NewSnapshotForwarder creates a forwarder. maxFPS outside 1..120 means 30.
func NewSnapshotForwarder(maxFPS int) *SnapshotForwarder {
	if maxFPS <= 0 || maxFPS > 120 {
		maxFPS = 30
	}
	return &SnapshotForwarder{
		wake:        make(chan struct{}, 1),
		minInterval: time.Second / time.Duration(maxFPS),
	}
}

// Observe records s as the snapshot to deliver next. It is meant to be
// passed to session.Controller.Subscribe.
func (f *SnapshotForwarder) Observe(s session.Snapshot) {
	f.mu.Lock()
	if !f.pending || s.Seq >= f.latest.Seq {
		f.latest = s
	}
	f.pending = true
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Run delivers snapshots to sender until ctx is cancelled.
func (f *SnapshotForwarder) Run(ctx context.Context, sender Sender) {
	var lastSend time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.wake:
		}

		if wait := f.minInterval - time.Since(lastSend); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		f.mu.Lock()
		snap, ok := f.latest, f.pending
		f.pending = false
		f.mu.Unlock()

		if ok {
			sender.Send(SnapshotMsg{Snapshot: snap})
			lastSend = time.Now()
		}
	}
}
