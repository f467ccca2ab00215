// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/novagem/internal/theme"
	"github.com/jeranaias/novagem/internal/ui/components"
	"github.com/jeranaias/novagem/internal/util"
)

// Fixed chrome heights.
const (
	headerHeight = 1
	inputHeight  = 2 // top border + input line
	statusHeight = 1
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.theme.SetSize(width, height)
	m.list.SetWidth(width)
	m.welcome.SetWidth(width)
	m.settings.SetWidth(width)
	m.help.Width = width
	m.input.Width = width - 6
	m.layout()
	m.refreshViewport(true)
}

// layout sizes the viewport to the space left by the fixed chrome.
func (m *Model) layout() {
	h := m.height - headerHeight - inputHeight - statusHeight
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

// refreshViewport re-renders the history. follow scrolls to the bottom when
// the user was already there.
func (m *Model) refreshViewport(follow bool) {
	atBottom := m.viewport.AtBottom()
	m.list.SetMessages(m.messages)
	m.list.SetSpinnerFrame(m.spinner.View())
	m.viewport.SetContent(m.list.View())
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return "Starting NovaGem..."
	}

	switch m.screen {
	case ScreenSplash:
		return m.splash.View()
	case ScreenSettings:
		return m.renderSettings()
	default:
		return m.renderChat()
	}
}

func (m Model) renderChat() string {
	body := m.viewport.View()
	if len(m.messages) == 0 {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.welcome.View())
	}

	parts := []string{
		m.renderHeader(),
		body,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderSettings() string {
	bodyHeight := m.height - headerHeight - statusHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.settings.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar())
}

// renderHeader shows the brand, the request target and the theme.
func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("NovaGem")

	target := m.cfg.API.Endpoint
	if m.cfg.API.Transport == "gemini" {
		target = "gemini/" + m.cfg.API.GeminiModel
	}
	themeLabel := m.preference.Label()
	if m.preference == theme.System {
		themeLabel += " (" + string(m.effective) + ")"
	}
	meta := m.theme.HeaderMeta.Render(target + "  theme: " + themeLabel)

	gap := m.width - lipgloss.Width(brand) - lipgloss.Width(meta) - 2
	if gap < 1 {
		meta = m.theme.HeaderMeta.Render(util.TruncateWidth(target, maxInt(m.width-lipgloss.Width(brand)-4, 0)))
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(brand + strings.Repeat(" ", gap) + meta)
}

// renderStatusBar shows the status text, the thinking indicator, or key
// hints, in that order of priority.
func (m Model) renderStatusBar() string {
	var content string
	switch {
	case m.status != "" && m.statusErr:
		content = m.theme.StatusError.Render(m.status)
	case m.status != "":
		content = m.status
	case m.thinking():
		content = m.spinner.View() + " " + m.theme.ThinkingText.Render(components.ThinkingText)
	default:
		content = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).Render(content)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
