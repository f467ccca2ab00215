// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/novagem/internal/ui/styles"
)

// SplashDoneMsg is sent once when the splash screen should give way to the
// chat screen.
type SplashDoneMsg struct{}

// splashTimeoutMsg fires when the splash duration elapses.
type splashTimeoutMsg struct{}

const splashLogo = ` _   _                  ____
| \ | | _____   ____ _ / ___| ___ _ __ ___
|  \| |/ _ \ \ / / _' | |  _ / _ \ '_ ' _ \
| |\  | (_) \ V / (_| | |_| |  __/ | | | | |
|_| \_|\___/ \_/ \__,_|\____|\___|_| |_| |_|`

const splashTagline = "Ask anything."

// =============================================================================
// SPLASH SCREEN MODEL
// =============================================================================

// Splash shows the logo for a fixed duration. Any key skips it.
type Splash struct {
	duration time.Duration
	version  string
	done     bool

	width  int
	height int

	theme *styles.Theme
}

// NewSplash creates a splash that lasts duration.
func NewSplash(theme *styles.Theme, duration time.Duration) Splash {
	return Splash{duration: duration, version: "dev", theme: theme}
}

// SetVersion sets the version shown under the tagline.
func (s *Splash) SetVersion(version string) {
	s.version = version
}

// SetSize updates the dimensions.
func (s *Splash) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Done reports whether the splash has finished.
func (s Splash) Done() bool {
	return s.done
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the splash timer. A zero duration finishes immediately.
func (s Splash) Init() tea.Cmd {
	if s.duration <= 0 {
		return func() tea.Msg { return splashTimeoutMsg{} }
	}
	return tea.Tick(s.duration, func(time.Time) tea.Msg {
		return splashTimeoutMsg{}
	})
}

// Update handles messages.
func (s Splash) Update(msg tea.Msg) (Splash, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil
	case splashTimeoutMsg, tea.KeyMsg:
		if s.done {
			return s, nil
		}
		s.done = true
		return s, func() tea.Msg { return SplashDoneMsg{} }
	}
	return s, nil
}

// View renders the logo centered in the terminal.
func (s Splash) View() string {
	width := s.width
	if width == 0 {
		width = 80
	}
	height := s.height
	if height == 0 {
		height = 24
	}

	logo := splashLogo
	if width < 50 {
		logo = "NovaGem"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.theme.SplashLogo.Render(logo),
		"",
		s.theme.SplashTagline.Render(splashTagline),
		s.theme.SplashHint.Render("v"+s.version),
		"",
		s.theme.SplashHint.Render("press any key to continue"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
