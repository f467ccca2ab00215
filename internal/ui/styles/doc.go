// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the novagem TUI.

# Color System (colors.go)

Every color is a Lip Gloss AdaptiveColor. The light or dark side is chosen by
the renderer's dark-background flag, which the theme store sets when the
effective theme changes; nothing in this package reads the terminal.

  - Violet - Brand color, AI messages, selections
  - Teal - User messages and key hints
  - Rose - Errors and destructive actions
  - Amber - System notices

# Theme (theme.go)

Theme groups the styles for each screen: header and status bar, message
bubbles, input, code blocks, splash, welcome prompts and settings.

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	bubble := theme.AIBubble.Width(theme.BubbleWidth()).Render(text)

# Accessibility

Status helpers (RenderSuccess, RenderError, RenderWarning, RenderInfo) pair
color with an ASCII indicator so meaning survives without color.
*/
package styles
