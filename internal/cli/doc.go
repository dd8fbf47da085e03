// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// chatpane.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags and command arguments
//   - REPL: Line-mode chat loop used by `chatpane chat`
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	switch cmd {
//	case cli.CmdChat:
//	    return cli.NewREPL(ctrl, reader, os.Stdout).Run(ctx)
//	case cli.CmdList:
//	    return cli.ListChats(ctx, store, os.Stdout, cli.GetTerminalWidth())
//	}
package cli
