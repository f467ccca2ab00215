// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme_StylesRender(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AIBubble", theme.AIBubble},
		{"SystemBubble", theme.SystemBubble},
		{"ErrorBubble", theme.ErrorBubble},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"CodeBlock", theme.CodeBlock},
		{"SettingsBox", theme.SettingsBox},
		{"WelcomePrompt", theme.WelcomePrompt},
	}
	for _, s := range styles {
		if out := s.style.Render("test"); !strings.Contains(out, "test") {
			t.Errorf("%s style lost its content: %q", s.name, out)
		}
	}
}

func TestBubblesHaveBorders(t *testing.T) {
	theme := NewTheme()
	for name, s := range map[string]lipgloss.Style{
		"user":  theme.UserBubble,
		"ai":    theme.AIBubble,
		"error": theme.ErrorBubble,
	} {
		if lipgloss.Height(s.Render("x")) < 1 {
			t.Errorf("%s bubble rendered empty", name)
		}
		if s.GetBorderLeft() == false {
			t.Errorf("%s bubble should have a left border", name)
		}
	}
}

func TestBubblesDrawBorderCharacters(t *testing.T) {
	theme := NewTheme()

	errOut := theme.ErrorBubble.Render("boom")
	if !strings.Contains(errOut, lipgloss.ThickBorder().Left) {
		t.Errorf("error bubble is missing its left bar: %q", errOut)
	}
	if strings.Contains(errOut, lipgloss.ThickBorder().Top) {
		t.Errorf("error bubble should only draw the left side: %q", errOut)
	}

	for name, s := range map[string]lipgloss.Style{
		"user": theme.UserBubble,
		"ai":   theme.AIBubble,
	} {
		out := s.Render("hi")
		if !strings.Contains(out, lipgloss.RoundedBorder().TopLeft) {
			t.Errorf("%s bubble is missing its rounded border: %q", name, out)
		}
		if got := lipgloss.Height(out); got != 3 {
			t.Errorf("%s bubble height = %d, want 3", name, got)
		}
	}
}

func TestLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestBubbleWidth(t *testing.T) {
	theme := NewTheme()

	theme.SetSize(0, 0)
	if got := theme.BubbleWidth(); got != 70 {
		t.Errorf("default width = %d, want 70", got)
	}

	theme.SetSize(200, 50)
	if got := theme.BubbleWidth(); got != 150 {
		t.Errorf("wide width = %d, want 150", got)
	}

	theme.SetSize(10, 10)
	if got := theme.BubbleWidth(); got != 20 {
		t.Errorf("tiny width = %d, want minimum 20", got)
	}
}
