// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/novagem/internal/ui/styles"
)

// PromptSelectedMsg carries the example prompt the user picked.
type PromptSelectedMsg struct {
	Text string
}

// DefaultPrompts are the example prompts shown while the history is empty.
var DefaultPrompts = []string{
	"Explain quantum computing in simple terms",
	"Write a Python function that reverses a string",
	"What are some tips for better sleep?",
	"Summarize the plot of Hamlet",
}

// =============================================================================
// WELCOME MESSAGE MODEL
// =============================================================================

// Welcome greets the user on an empty chat and offers example prompts.
// Tab and shift+tab move the selection; enter picks it.
type Welcome struct {
	prompts  []string
	selected int

	width int
	theme *styles.Theme
}

// NewWelcome creates a welcome message with the default prompts.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{prompts: DefaultPrompts, theme: theme}
}

// SetPrompts replaces the example prompts.
func (w *Welcome) SetPrompts(prompts []string) {
	w.prompts = prompts
	w.selected = 0
}

// SetWidth updates the width.
func (w *Welcome) SetWidth(width int) {
	w.width = width
}

// Selected returns the highlighted prompt, or "" when there are none.
func (w Welcome) Selected() string {
	if len(w.prompts) == 0 {
		return ""
	}
	return w.prompts[w.selected]
}

// Next moves the selection forward, wrapping around.
func (w *Welcome) Next() {
	if len(w.prompts) > 0 {
		w.selected = (w.selected + 1) % len(w.prompts)
	}
}

// Prev moves the selection back, wrapping around.
func (w *Welcome) Prev() {
	if len(w.prompts) > 0 {
		w.selected = (w.selected - 1 + len(w.prompts)) % len(w.prompts)
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update handles prompt navigation keys.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return w, nil
	}
	switch key.String() {
	case "tab", "down":
		w.Next()
	case "shift+tab", "up":
		w.Prev()
	case "enter":
		if text := w.Selected(); text != "" {
			return w, func() tea.Msg { return PromptSelectedMsg{Text: text} }
		}
	}
	return w, nil
}

// View renders the greeting and prompt chips.
func (w Welcome) View() string {
	var b strings.Builder
	b.WriteString(w.theme.WelcomeTitle.Render("Hello! How can I help you today?"))
	b.WriteString("\n")
	b.WriteString(w.theme.WelcomeText.Render("Type a question below, or pick an example:"))
	b.WriteString("\n\n")

	chips := make([]string, 0, len(w.prompts))
	for i, p := range w.prompts {
		style := w.theme.WelcomePrompt
		if i == w.selected {
			style = w.theme.WelcomePromptActive
		}
		chips = append(chips, style.Render(p))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, chips...))
	b.WriteString("\n")
	b.WriteString(w.theme.ShortcutDesc.Render("tab: next example  enter: use it"))
	return b.String()
}
