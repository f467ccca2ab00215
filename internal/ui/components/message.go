// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/ui/styles"
)

// ThinkingText is shown inside a pending placeholder.
const ThinkingText = "Thinking..."

// nowFunc is replaced in tests.
var nowFunc = time.Now

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single chat message.
type MessageBubble struct {
	Message model.ChatMessage

	theme    *styles.Theme
	markdown *Markdown

	width         int
	dark          bool
	showTimestamp bool
	spinnerFrame  string
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.ChatMessage, theme *styles.Theme, md *Markdown) *MessageBubble {
	return &MessageBubble{
		Message:  msg,
		theme:    theme,
		markdown: md,
		width:    80,
		dark:     true,
	}
}

// SetWidth sets the width of the surrounding viewport.
func (b *MessageBubble) SetWidth(width int) {
	b.width = width
}

// SetDark selects dark code and markdown styles.
func (b *MessageBubble) SetDark(dark bool) {
	b.dark = dark
}

// SetShowTimestamp toggles the timestamp next to the role label.
func (b *MessageBubble) SetShowTimestamp(show bool) {
	b.showTimestamp = show
}

// SetSpinnerFrame sets the frame drawn in a pending placeholder.
func (b *MessageBubble) SetSpinnerFrame(frame string) {
	b.spinnerFrame = frame
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	switch {
	case b.Message.Pending:
		return b.renderThinking()
	case b.Message.IsError:
		return b.renderError()
	case b.Message.Role == model.RoleUser:
		return b.renderUser()
	case b.Message.Role == model.RoleAI:
		return b.renderAI()
	default:
		return b.renderSystem()
	}
}

func (b *MessageBubble) contentWidth() int {
	t := *b.theme
	t.SetSize(b.width, t.Height)
	return t.BubbleWidth()
}

func (b *MessageBubble) renderUser() string {
	w := b.contentWidth()
	bubble := b.theme.UserBubble.
		MarginLeft(0).
		MaxWidth(w).
		Render(wrap(b.Message.Text, w-4))
	block := lipgloss.JoinVertical(lipgloss.Right, b.label(), bubble)
	return lipgloss.PlaceHorizontal(b.width, lipgloss.Right, block)
}

func (b *MessageBubble) renderAI() string {
	w := b.contentWidth()
	body := b.Message.Text
	if b.markdown != nil {
		body = b.markdown.Render(body, w-4, b.dark)
	} else {
		body = wrap(body, w-4)
	}
	return lipgloss.JoinVertical(lipgloss.Left, b.label(), b.theme.AIBubble.Render(body))
}

func (b *MessageBubble) renderSystem() string {
	w := b.contentWidth()
	return lipgloss.JoinVertical(lipgloss.Left,
		b.label(),
		b.theme.SystemBubble.Render(wrap(b.Message.Text, w-4)),
	)
}

func (b *MessageBubble) renderError() string {
	w := b.contentWidth()
	text := styles.StatusIndicators.Error + " " + b.Message.Text
	return lipgloss.JoinVertical(lipgloss.Left,
		b.label(),
		b.theme.ErrorBubble.Render(wrap(text, w-2)),
	)
}

func (b *MessageBubble) renderThinking() string {
	frame := b.spinnerFrame
	if frame == "" {
		frame = "..."
	}
	line := b.theme.Spinner.Render(frame) + " " + b.theme.ThinkingText.Render(ThinkingText)
	return lipgloss.JoinVertical(lipgloss.Left, b.label(), b.theme.AIBubble.Render(line))
}

// label renders the role name and, when enabled, the timestamp.
func (b *MessageBubble) label() string {
	name := b.Message.Role.DisplayName()
	if b.Message.IsError {
		name += " (error)"
	}
	out := b.theme.RoleLabel.Render(name)
	if b.showTimestamp && !b.Message.Timestamp.IsZero() && !b.Message.Pending {
		out += " " + b.theme.Timestamp.Render(FormatTimestamp(b.Message.Timestamp))
	}
	return out
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders the full history for the chat viewport.
type MessageList struct {
	Messages []model.ChatMessage

	theme    *styles.Theme
	markdown *Markdown

	width         int
	dark          bool
	showTimestamp bool
	spinnerFrame  string
}

// NewMessageList creates an empty list.
func NewMessageList(theme *styles.Theme, md *Markdown) *MessageList {
	return &MessageList{theme: theme, markdown: md, width: 80, dark: true}
}

// SetMessages replaces the rendered history.
func (ml *MessageList) SetMessages(msgs []model.ChatMessage) { ml.Messages = msgs }

// SetWidth sets the viewport width.
func (ml *MessageList) SetWidth(width int) { ml.width = width }

// SetDark selects dark code and markdown styles.
func (ml *MessageList) SetDark(dark bool) { ml.dark = dark }

// SetShowTimestamp toggles timestamps.
func (ml *MessageList) SetShowTimestamp(show bool) { ml.showTimestamp = show }

// SetSpinnerFrame sets the frame used for pending placeholders.
func (ml *MessageList) SetSpinnerFrame(frame string) { ml.spinnerFrame = frame }

// View renders every message separated by a blank line.
func (ml *MessageList) View() string {
	parts := make([]string, 0, len(ml.Messages))
	for _, m := range ml.Messages {
		b := NewMessageBubble(m, ml.theme, ml.markdown)
		b.SetWidth(ml.width)
		b.SetDark(ml.dark)
		b.SetShowTimestamp(ml.showTimestamp)
		b.SetSpinnerFrame(ml.spinnerFrame)
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// FormatTimestamp formats t as "3:04 PM" for today and "Jan 2, 3:04 PM"
// otherwise.
func FormatTimestamp(t time.Time) string {
	now := nowFunc()
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("3:04 PM")
	}
	return t.Format("Jan 2, 3:04 PM")
}

// wrap word-wraps text to width columns.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
