// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/novagem/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders AI answers. With glamour enabled the answer is rendered
// as full markdown in the style of the effective theme; otherwise only
// fenced and inline code are highlighted.
type Markdown struct {
	enabled bool
	theme   *styles.Theme

	mu        sync.Mutex
	renderers map[rendererKey]*glamour.TermRenderer
}

type rendererKey struct {
	width int
	dark  bool
}

// NewMarkdown creates a renderer. enabled selects glamour.
func NewMarkdown(theme *styles.Theme, enabled bool) *Markdown {
	return &Markdown{
		enabled:   enabled,
		theme:     theme,
		renderers: make(map[rendererKey]*glamour.TermRenderer),
	}
}

// SetEnabled switches between glamour and code-only rendering.
func (m *Markdown) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Render renders text wrapped at width.
func (m *Markdown) Render(text string, width int, dark bool) string {
	if width < 20 {
		width = 20
	}

	m.mu.Lock()
	enabled := m.enabled
	m.mu.Unlock()

	if enabled {
		if r := m.renderer(width, dark); r != nil {
			if out, err := r.Render(text); err == nil {
				return strings.Trim(out, "\n")
			}
		}
	}
	return ParseCodeBlocks(text, width, dark, m.theme)
}

// renderer returns a cached glamour renderer, or nil if one can't be built.
func (m *Markdown) renderer(width int, dark bool) *glamour.TermRenderer {
	key := rendererKey{width: width, dark: dark}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[key]; ok {
		return r
	}

	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.renderers[key] = r
	return r
}
