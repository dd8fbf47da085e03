// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	sub, err := NewFileSubstrate(dir)
	if err != nil {
		t.Fatalf("NewFileSubstrate failed: %v", err)
	}

	w, err := NewWatcher(sub.Path(ChatsKey), 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := sub.Set(context.Background(), ChatsKey, "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification within 3s")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "chat-history.json"), 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "chatpane.log"), []byte("line\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case <-w.Changes():
		t.Error("unexpected notification for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
