// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/session"
	"github.com/jeranaias/novagem/internal/ui/components"
)

// Status texts.
const (
	statusBusy         = "Please wait for the current answer (esc cancels)."
	statusCopied       = "Answer copied to clipboard."
	statusNothingCopy  = "No answer to copy yet."
	statusCodeCopied   = "Code block copied to clipboard."
	statusNoCode       = "No code block in the last answer."
	statusCleared      = "Chat history cleared."
	statusConfigReload = "Configuration reloaded."
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.splash, _ = m.splash.Update(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	// Screen transitions
	case components.SplashDoneMsg:
		m.screen = ScreenChat
		return m, m.input.Focus()

	case components.SettingsClosedMsg:
		m.screen = ScreenChat
		m.settings.Reset()
		return m, m.input.Focus()

	// State events
	case MessagesChangedMsg:
		m.messages = msg.Messages
		m.refreshViewport(true)
		return m, m.ensureSpinner()

	case BridgeStateMsg:
		m.bridge = msg.State
		return m, m.ensureSpinner()

	case PreferenceChangedMsg:
		m.preference = msg.Preference
		m.settings.SetPreference(msg.Preference)
		return m, nil

	case EffectiveChangedMsg:
		m.effective = msg.Effective
		m.settings.SetEffective(msg.Effective)
		m.list.SetDark(msg.Effective.IsDark())
		m.refreshViewport(false)
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg)
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		m.statusErr = msg.IsError
		return m, nil

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		if !m.thinking() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport(false)
		return m, cmd

	// Component intents
	case components.PromptSelectedMsg:
		m.input.SetValue(msg.Text)
		m.input.CursorEnd()
		return m, nil

	case components.ThemeChosenMsg:
		if err := m.themes.SetPreference(msg.Preference); err != nil {
			return m, statusCmd(err.Error(), true)
		}
		return m, nil

	case components.ClearHistoryConfirmedMsg:
		m.session.ClearHistory()
		m.status = statusCleared
		m.statusErr = false
		return m, nil
	}

	if m.screen == ScreenSplash {
		var cmd tea.Cmd
		m.splash, cmd = m.splash.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case ScreenSplash:
		var cmd tea.Cmd
		m.splash, cmd = m.splash.Update(msg)
		return m, cmd

	case ScreenSettings:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Cancel):
		return m.cancel()

	case key.Matches(msg, m.keys.Settings):
		m.screen = ScreenSettings
		m.themes.Refresh()
		m.settings.Reset()
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastAnswer()

	case key.Matches(msg, m.keys.CopyCode):
		return m, m.copyLastCode()

	case key.Matches(msg, m.keys.ToggleTheme):
		m.themes.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.NextPrompt, m.keys.PrevPrompt):
		if m.showWelcome() {
			var cmd tea.Cmd
			m.welcome, cmd = m.welcome.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a question. With empty input on an empty chat,
// enter picks the highlighted example prompt instead.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		if m.showWelcome() {
			var cmd tea.Cmd
			m.welcome, cmd = m.welcome.Update(tea.KeyMsg{Type: tea.KeyEnter})
			return m, cmd
		}
		return m, nil
	}

	if m.session.Busy() {
		m.status = statusBusy
		m.statusErr = true
		return m, nil
	}

	if _, err := m.session.Submit(m.ctx, text); err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			m.status = statusBusy
		case errors.Is(err, session.ErrEmptyQuestion):
			return m, nil
		default:
			m.logger.Warn("submit failed", zap.Error(err))
			m.status = err.Error()
		}
		m.statusErr = true
		return m, nil
	}

	// Show the question and placeholder now rather than waiting for the
	// pump to deliver them.
	m.messages = m.session.Bus().Snapshot()
	m.bridge = m.session.Bridge().State().Get()
	m.refreshViewport(true)

	m.input.Reset()
	m.status = ""
	m.statusErr = false
	return m, m.ensureSpinner()
}

// cancel cancels a pending request, or dismisses the last error.
func (m Model) cancel() (tea.Model, tea.Cmd) {
	if m.session.Busy() || m.bridge.Phase == api.Errored {
		m.session.Dismiss()
	}
	m.status = ""
	m.statusErr = false
	return m, nil
}

func (m Model) copyLastAnswer() tea.Cmd {
	last, ok := m.session.Bus().LastAnswer()
	if !ok {
		return statusCmd(statusNothingCopy, true)
	}
	return m.copyText(last.Text, statusCopied)
}

func (m Model) copyLastCode() tea.Cmd {
	last, ok := m.session.Bus().LastAnswer()
	if !ok {
		return statusCmd(statusNothingCopy, true)
	}
	block, ok := components.LastCodeBlock(last.Text)
	if !ok {
		return statusCmd(statusNoCode, true)
	}
	return m.copyText(block.Code, statusCodeCopied)
}

func (m Model) copyText(text, done string) tea.Cmd {
	copyFn := m.copy
	logger := m.logger
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			logger.Warn("clipboard write failed", zap.Error(err))
			return StatusMsg{Text: "Copy failed: " + err.Error(), IsError: true}
		}
		return StatusMsg{Text: done}
	}
}

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Config == nil {
		return
	}
	m.cfg = msg.Config
	m.markdown.SetEnabled(m.cfg.UI.Markdown)
	m.list.SetShowTimestamp(m.cfg.UI.ShowTimestamps)
	m.refreshViewport(false)
	m.status = statusConfigReload
	m.statusErr = false
}

// =============================================================================
// HELPERS
// =============================================================================

// thinking reports whether a placeholder is waiting for its answer.
func (m Model) thinking() bool {
	if m.bridge.IsLoading() {
		return true
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Pending {
			return true
		}
	}
	return false
}

// ensureSpinner starts the spinner tick loop if something is pending.
func (m *Model) ensureSpinner() tea.Cmd {
	if m.spinning || !m.thinking() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// showWelcome reports whether the welcome prompts are visible.
func (m Model) showWelcome() bool {
	return len(m.messages) == 0 && strings.TrimSpace(m.input.Value()) == ""
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text, IsError: isErr} }
}
