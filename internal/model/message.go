// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/novagem/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the producer of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAI:
		return "NovaGem"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// ParseRole maps a stored role string to a Role. Older history records used
// "assistant" or "bot" for answers; unknown values fall back to system.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser
	case "ai", "assistant", "bot", "model":
		return RoleAI
	default:
		return RoleSystem
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ErrorPrefix is prepended to the text of surfaced failures.
const ErrorPrefix = "Error: "

// ChatMessage is a single entry in the chat history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Pending marks a placeholder awaiting its answer.
	Pending bool `json:"pending,omitempty"`

	// IsError marks a message that represents a surfaced failure.
	IsError bool `json:"isError,omitempty"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role Role, text string) ChatMessage {
	return ChatMessage{
		ID:        NewID(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(text string) ChatMessage {
	return NewMessage(RoleUser, text)
}

// NewAIMessage creates an answer message.
func NewAIMessage(text string) ChatMessage {
	return NewMessage(RoleAI, text)
}

// NewSystemMessage creates a system notice.
func NewSystemMessage(text string) ChatMessage {
	return NewMessage(RoleSystem, text)
}

// NewPendingMessage creates an empty AI placeholder that reserves a slot in
// the history until the answer or error arrives.
func NewPendingMessage() ChatMessage {
	m := NewMessage(RoleAI, "")
	m.Pending = true
	return m
}

// Resolve returns the placeholder filled with answer text. The id is kept so
// the bus can replace the placeholder in place.
func (m ChatMessage) Resolve(text string) ChatMessage {
	m.Text = text
	m.Pending = false
	m.IsError = false
	m.Timestamp = time.Now()
	return m
}

// Fail returns the placeholder turned into an error message.
func (m ChatMessage) Fail(reason string) ChatMessage {
	m.Text = ErrorPrefix + reason
	m.Pending = false
	m.IsError = true
	m.Timestamp = time.Now()
	return m
}

// Preview returns a one-line, rune-safe preview of the message text.
func (m ChatMessage) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(m.Text), maxLen)
}

// Equal reports whether two messages carry the same data, comparing
// timestamps at millisecond precision.
func (m ChatMessage) Equal(o ChatMessage) bool {
	return m.ID == o.ID &&
		m.Role == o.Role &&
		m.Text == o.Text &&
		m.Pending == o.Pending &&
		m.IsError == o.IsError &&
		m.Timestamp.UnixMilli() == o.Timestamp.UnixMilli()
}

// NewID returns a unique message id.
func NewID() string {
	return "msg_" + uuid.NewString()
}

// Clone returns a copy of the sequence so callers can't alias the bus state.
func Clone(msgs []ChatMessage) []ChatMessage {
	if msgs == nil {
		return []ChatMessage{}
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
