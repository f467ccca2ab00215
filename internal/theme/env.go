// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package theme

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Environment is the platform the theme is applied to.
type Environment interface {
	// Interactive reports whether output is a terminal a user is looking at.
	Interactive() bool

	// PrefersDark is the OS color-scheme signal.
	PrefersDark() bool

	// SetDark sets or clears the dark marker.
	SetDark(dark bool)
}

// TerminalEnvironment reads the terminal background and sets lipgloss's
// dark-background flag, which adaptive colors key off.
type TerminalEnvironment struct {
	out *os.File
}

// NewTerminalEnvironment uses out, or stdout when out is nil.
func NewTerminalEnvironment(out *os.File) *TerminalEnvironment {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalEnvironment{out: out}
}

// Interactive implements Environment.
func (e *TerminalEnvironment) Interactive() bool {
	return term.IsTerminal(int(e.out.Fd()))
}

// PrefersDark implements Environment. Off a terminal there is no background
// to query and light is reported.
func (e *TerminalEnvironment) PrefersDark() bool {
	if !e.Interactive() {
		return false
	}
	return termenv.NewOutput(e.out).HasDarkBackground()
}

// SetDark implements Environment.
func (e *TerminalEnvironment) SetDark(dark bool) {
	lipgloss.SetHasDarkBackground(dark)
}
