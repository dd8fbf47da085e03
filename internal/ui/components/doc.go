// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the chatpane UI building blocks.

# Components

MessageRenderer (message.go) renders one message or a whole transcript as
role-styled bubbles, optionally through glamour for assistant markdown.

Sidebar (sidebar.go) lists conversations newest first and turns key presses
into intents (SelectChatMsg, NewChatMsg, ChatDeletedMsg). Deletion goes
through the injected storage.ChatRepository.

StatusBar (statusbar.go) shows the session status or last error on the left
and key hints on the right.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme(styles.ThemeAuto)
	sb := components.NewSidebar(store, theme)
	sb.SetSize(28, 40)
	view := sb.View()
*/
package components
