// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme(ThemeAuto)
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"SidebarItemCurrent", theme.SidebarItemCurrent},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}
	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestNewTheme_Forced(t *testing.T) {
	if !NewTheme(ThemeDark).IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme(ThemeLight).IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestGlamourStyle(t *testing.T) {
	got := NewTheme(ThemeDark).GlamourStyle()
	switch got {
	case "dark", "notty":
	default:
		t.Errorf("GlamourStyle() = %q", got)
	}
}
