// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for chatpane.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. NewTheme can also force one side with "dark" or "light".

# Colors

  - Cyan - user messages and the focus ring
  - Purple - assistant messages and the selected conversation
  - Amber - the streaming marker
  - Rose - errors and the delete affordance

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	bubble := theme.UserBubble.Render("Hello")
*/
package styles
