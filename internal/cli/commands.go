// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatpane/internal/storage"
)

// listFixedWidth is the width of every list column except the title: a
// 36-char id, a 3-digit count, a 16-char date and three 2-space gaps.
const listFixedWidth = 36 + 3 + 16 + 3*2

const (
	minListTitleWidth = 12
	maxListTitleWidth = 48
)

// ListTitleWidth returns the title column width that fits a terminal of
// the given width.
func ListTitleWidth(termWidth int) int {
	w := termWidth - listFixedWidth
	if w < minListTitleWidth {
		return minListTitleWidth
	}
	if w > maxListTitleWidth {
		return maxListTitleWidth
	}
	return w
}

// ListChats prints one line per stored conversation, newest first, with
// titles sized for a terminal termWidth columns wide.
func ListChats(ctx context.Context, repo storage.ChatRepository, w io.Writer, termWidth int) error {
	chats, err := repo.GetChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return nil
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	titleWidth := ListTitleWidth(termWidth)
	for _, c := range chats {
		title := runewidth.FillRight(runewidth.Truncate(c.Title, titleWidth, "…"), titleWidth)
		fmt.Fprintf(w, "%s  %s  %3d  %s\n", c.ID, title, c.MessageCount(), c.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// DeleteChat removes the conversation with id. Unlike the repository, it
// reports an id that is not stored.
func DeleteChat(ctx context.Context, repo storage.ChatRepository, id string, w io.Writer) error {
	if _, err := repo.GetChat(ctx, id); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	if err := repo.DeleteChat(ctx, id); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	fmt.Fprintf(w, "Deleted %s\n", id)
	return nil
}
