// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the root Bubble Tea model for the chatpane TUI.
//
// The model lays out the conversation sidebar on the left and the message
// pane with its input line on the right. State lives in a
// session.Controller; the model renders the controller's snapshots and turns
// key presses into controller calls.
//
// # Streaming
//
// Submit runs in a tea.Cmd goroutine. Snapshots published while the reply
// streams reach the program through a SnapshotForwarder, which keeps only the
// newest snapshot and caps the frame rate:
//
//	fwd := chat.NewSnapshotForwarder(30)
//	ctrl.Subscribe(fwd.Observe)
//	go fwd.Run(ctx, program)
//
// # Keys
//
//	Enter   send the input
//	Tab     switch focus between sidebar and input
//	Ctrl+N  new conversation
//	Ctrl+C  quit
package chat
