// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/novagem/internal/theme"
	"github.com/jeranaias/novagem/internal/ui/styles"
)

// ThemeChosenMsg asks the app to store a new theme preference.
type ThemeChosenMsg struct {
	Preference theme.Preference
}

// ClearHistoryConfirmedMsg asks the app to clear the chat history.
type ClearHistoryConfirmedMsg struct{}

// SettingsClosedMsg returns to the chat screen.
type SettingsClosedMsg struct{}

// SettingsItem identifies a row on the settings screen.
type SettingsItem int

const (
	SettingsTheme SettingsItem = iota
	SettingsClearHistory
	SettingsBack
	settingsItemCount
)

// ClearHistoryPrompt is the confirmation question for clearing history.
const ClearHistoryPrompt = "Delete all chat history? This cannot be undone. (y/n)"

// =============================================================================
// SETTINGS MODEL
// =============================================================================

// Settings lets the user pick a theme and clear the history.
type Settings struct {
	cursor     SettingsItem
	preference theme.Preference
	effective  theme.Effective
	confirming bool

	width int
	theme *styles.Theme
}

// NewSettings creates the settings screen.
func NewSettings(t *styles.Theme, pref theme.Preference, eff theme.Effective) Settings {
	return Settings{preference: pref, effective: eff, theme: t}
}

// SetPreference updates the displayed preference.
func (s *Settings) SetPreference(p theme.Preference) { s.preference = p }

// SetEffective updates the displayed effective theme.
func (s *Settings) SetEffective(e theme.Effective) { s.effective = e }

// SetWidth updates the width.
func (s *Settings) SetWidth(width int) { s.width = width }

// Cursor returns the highlighted row.
func (s Settings) Cursor() SettingsItem { return s.cursor }

// Confirming reports whether the clear-history confirmation is showing.
func (s Settings) Confirming() bool { return s.confirming }

// Reset moves the cursor to the top and drops any pending confirmation.
func (s *Settings) Reset() {
	s.cursor = SettingsTheme
	s.confirming = false
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update handles navigation keys.
func (s Settings) Update(msg tea.Msg) (Settings, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirming {
		switch key.String() {
		case "y", "Y":
			s.confirming = false
			return s, func() tea.Msg { return ClearHistoryConfirmedMsg{} }
		case "n", "N", "esc":
			s.confirming = false
		}
		return s, nil
	}

	switch key.String() {
	case "up", "k", "shift+tab":
		s.cursor = (s.cursor - 1 + settingsItemCount) % settingsItemCount
	case "down", "j", "tab":
		s.cursor = (s.cursor + 1) % settingsItemCount
	case "left", "h":
		if s.cursor == SettingsTheme {
			return s, s.choose(s.previousPreference())
		}
	case "right", "l":
		if s.cursor == SettingsTheme {
			return s, s.choose(s.preference.Next())
		}
	case "esc", "q":
		return s, func() tea.Msg { return SettingsClosedMsg{} }
	case "enter", " ":
		switch s.cursor {
		case SettingsTheme:
			return s, s.choose(s.preference.Next())
		case SettingsClearHistory:
			s.confirming = true
		case SettingsBack:
			return s, func() tea.Msg { return SettingsClosedMsg{} }
		}
	}
	return s, nil
}

func (s Settings) choose(p theme.Preference) tea.Cmd {
	return func() tea.Msg { return ThemeChosenMsg{Preference: p} }
}

func (s Settings) previousPreference() theme.Preference {
	prefs := theme.Preferences()
	for i, p := range prefs {
		if p == s.preference {
			return prefs[(i-1+len(prefs))%len(prefs)]
		}
	}
	return theme.System
}

// View renders the settings box.
func (s Settings) View() string {
	var rows []string
	rows = append(rows, s.theme.SettingsTitle.Render("Settings"))

	themeValue := s.renderPreferences()
	if s.preference == theme.System {
		themeValue += s.theme.ShortcutDesc.Render("  (currently " + string(s.effective) + ")")
	}
	rows = append(rows, s.row(SettingsTheme, "Theme", themeValue))
	rows = append(rows, s.row(SettingsClearHistory, "Clear chat history", ""))
	rows = append(rows, s.row(SettingsBack, "Back to chat", ""))

	if s.confirming {
		rows = append(rows, "", s.theme.SettingsDanger.Render(ClearHistoryPrompt))
	} else {
		rows = append(rows, "", s.theme.ShortcutDesc.Render("up/down: move  left/right/enter: change  esc: back"))
	}

	box := s.theme.SettingsBox
	if s.width > 0 && s.width < 70 {
		box = box.Padding(0, 1)
	}
	return box.Render(strings.Join(rows, "\n"))
}

func (s Settings) row(item SettingsItem, label, value string) string {
	style := s.theme.SettingsItem
	if item == s.cursor {
		style = s.theme.SettingsItemSelected
	}
	if item == SettingsClearHistory && item != s.cursor {
		style = style.Foreground(styles.Rose)
	}
	line := style.Render(label)
	if value != "" {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", value)
	}
	return line
}

func (s Settings) renderPreferences() string {
	parts := make([]string, 0, 3)
	for _, p := range theme.Preferences() {
		label := p.Label()
		if p == s.preference {
			parts = append(parts, s.theme.SettingsValue.Bold(true).Render("["+label+"]"))
		} else {
			parts = append(parts, s.theme.ShortcutDesc.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}
