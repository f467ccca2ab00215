// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER / STATUS
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble   lipgloss.Style
	AIBubble     lipgloss.Style
	SystemBubble lipgloss.Style
	ErrorBubble  lipgloss.Style
	RoleLabel    lipgloss.Style
	Timestamp    lipgloss.Style

	// ==========================================================================
	// INPUT / LOADING
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	Spinner          lipgloss.Style
	ThinkingText     lipgloss.Style

	// ==========================================================================
	// CODE BLOCK STYLES
	// ==========================================================================

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style
	InlineCode    lipgloss.Style

	// ==========================================================================
	// SPLASH / WELCOME / SETTINGS
	// ==========================================================================

	SplashLogo    lipgloss.Style
	SplashTagline lipgloss.Style
	SplashHint    lipgloss.Style

	WelcomeTitle        lipgloss.Style
	WelcomeText         lipgloss.Style
	WelcomePrompt       lipgloss.Style
	WelcomePromptActive lipgloss.Style

	SettingsBox          lipgloss.Style
	SettingsTitle        lipgloss.Style
	SettingsItem         lipgloss.Style
	SettingsItemSelected lipgloss.Style
	SettingsValue        lipgloss.Style
	SettingsDanger       lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	t := &Theme{}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Violet)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AIBubble = lipgloss.NewStyle().
		Foreground(AIBubbleFg).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AIBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Border(lipgloss.NormalBorder()).
		BorderForeground(SystemBubbleBorder).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(ErrorBubbleBorder).
		PaddingLeft(1).
		MarginRight(4)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Violet)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Code blocks
	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Padding(0, 1).
		Bold(true)

	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	t.InlineCode = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Teal)

	// Splash
	t.SplashLogo = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true)

	t.SplashTagline = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.SplashHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Welcome
	t.WelcomeTitle = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true).
		MarginBottom(1)

	t.WelcomeText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.WelcomePrompt = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.WelcomePromptActive = t.WelcomePrompt.
		BorderForeground(Violet).
		Foreground(Violet)

	// Settings
	t.SettingsBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet).
		Padding(1, 2)

	t.SettingsTitle = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true).
		MarginBottom(1)

	t.SettingsItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.SettingsItemSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Violet).
		Bold(true).
		PaddingLeft(1).
		PaddingRight(1)

	t.SettingsValue = lipgloss.NewStyle().
		Foreground(Teal)

	t.SettingsDanger = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	return layoutFor(t.Width)
}

func layoutFor(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	if width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// BubbleWidth returns the wrap width for message bubbles in the current
// layout, leaving room for borders, padding and the alignment margin.
func (t *Theme) BubbleWidth() int {
	w := t.Width
	if w <= 0 {
		w = 80
	}
	// Before the first resize the layout follows the default width.
	switch layoutFor(w) {
	case LayoutNarrow:
		w -= 4
	case LayoutMedium:
		w -= 10
	default:
		w = w * 3 / 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
