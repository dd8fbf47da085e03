// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of the conversation view.
//
// A Controller holds the conversation collection, the selected conversation,
// the input text, the send-cycle phase, and the transient buffer of the reply
// being streamed. It has no UI dependencies; the terminal UI and the line-mode
// REPL both drive it and render its snapshots.
//
// # Send Cycle
//
//	Idle -> Compose -> Submit -> Sending -> Streaming -> Finalize -> Idle
//
// Submit persists the user message before the request is made. Each streamed
// increment is published as a snapshot whose Streaming field holds the whole
// reply so far. Finalize moves the reply into the conversation and clears the
// buffer in the same snapshot, then persists.
//
// # Usage
//
//	ctrl := session.NewController(store, client, logger)
//	ctrl.Subscribe(func(s session.Snapshot) { render(s) })
//	ctrl.Load(ctx)
//	ctrl.SetInput("Hello")
//	err := ctrl.Submit(ctx) // blocks until the reply is finalized
package session
