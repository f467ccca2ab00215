// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/chatstate"
	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/util"
)

var (
	// ErrBusy is returned by Submit while an answer is still pending.
	ErrBusy = errors.New("a response is still pending")

	// ErrEmptyQuestion is returned by Submit for blank input.
	ErrEmptyQuestion = api.ErrEmptyQuestion

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// CancelledReason fills a placeholder whose request was dismissed.
const CancelledReason = "The request was cancelled."

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager runs the conversation: it records the user's message, reserves a
// placeholder for the answer, asks the bridge, and resolves the placeholder
// in place when the bridge settles.
type Manager struct {
	bus    *chatstate.Bus
	bridge *api.Bridge
	logger *zap.Logger

	mu        sync.Mutex
	pendingID string
	closed    bool

	unsubscribe func()
}

// NewManager wires bus to bridge.
func NewManager(bus *chatstate.Bus, bridge *api.Bridge, logger *zap.Logger) *Manager {
	logger = logging.OrNop(logger)
	m := &Manager{
		bus:    bus,
		bridge: bridge,
		logger: logger.Named("session"),
	}
	m.unsubscribe = bridge.State().Subscribe(m.onState)
	return m
}

// Bus returns the chat history.
func (m *Manager) Bus() *chatstate.Bus { return m.bus }

// Bridge returns the request bridge.
func (m *Manager) Bridge() *api.Bridge { return m.bridge }

// Busy reports whether an answer is pending.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingID != ""
}

// Submit sends text as a question. It returns once the user message and the
// placeholder are recorded; the answer arrives asynchronously. Submits are
// rejected with ErrBusy while a previous answer is pending.
func (m *Manager) Submit(ctx context.Context, text string) (model.ChatMessage, error) {
	user, _, err := m.submit(ctx, text)
	return user, err
}

// Ask submits text and blocks until the answer or error is recorded. It
// returns the resolved message.
func (m *Manager) Ask(ctx context.Context, text string) (model.ChatMessage, error) {
	_, placeholderID, err := m.submit(ctx, text)
	if err != nil {
		return model.ChatMessage{}, err
	}

	if _, err := m.bridge.Wait(ctx); err != nil {
		return model.ChatMessage{}, err
	}

	// onState resolved the placeholder before Wait returned.
	msg, ok := m.bus.Find(placeholderID)
	if !ok {
		return model.ChatMessage{}, chatstate.ErrNotFound
	}
	return msg, nil
}

func (m *Manager) submit(ctx context.Context, text string) (model.ChatMessage, string, error) {
	question := util.NormalizeInput(text)
	if question == "" {
		return model.ChatMessage{}, "", ErrEmptyQuestion
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return model.ChatMessage{}, "", ErrClosed
	}
	if m.pendingID != "" {
		m.mu.Unlock()
		return model.ChatMessage{}, "", ErrBusy
	}
	placeholder := model.NewPendingMessage()
	m.pendingID = placeholder.ID
	m.mu.Unlock()

	user := m.bus.Append(model.NewUserMessage(question))
	m.bus.Append(placeholder)

	// The bridge publishes on this goroutine, so m.mu must not be held here.
	if err := m.bridge.Ask(ctx, question); err != nil {
		m.logger.Warn("ask rejected", zap.Error(err))
		m.resolve(func(p model.ChatMessage) model.ChatMessage {
			return p.Fail(api.MsgUnexpected)
		})
		return user, placeholder.ID, err
	}
	return user, placeholder.ID, nil
}

// Dismiss clears the bridge's answer and error. A pending request is
// cancelled and its placeholder marked as such.
func (m *Manager) Dismiss() {
	m.bridge.Clear()
}

// ClearHistory cancels any pending request and empties the history.
func (m *Manager) ClearHistory() {
	m.bridge.Clear()
	m.bus.Clear()
}

// Close cancels a pending request and detaches from the bridge.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	err := m.bridge.Close()
	m.unsubscribe()

	// A request that never reached the bridge's goroutine leaves no Idle
	// event behind; resolve it here.
	m.resolve(func(p model.ChatMessage) model.ChatMessage {
		return p.Fail(chatstate.InterruptedReason)
	})
	return err
}

// =============================================================================
// INTERNAL
// =============================================================================

// onState resolves the placeholder when the bridge settles. The bridge only
// publishes results of the latest ask, and Submit allows one pending ask, so
// a settled state always belongs to the current placeholder.
func (m *Manager) onState(s api.State) {
	switch s.Phase {
	case api.Answered:
		m.resolve(func(p model.ChatMessage) model.ChatMessage { return p.Resolve(s.Answer) })
	case api.Errored:
		m.resolve(func(p model.ChatMessage) model.ChatMessage { return p.Fail(s.Error) })
	case api.Idle:
		reason := CancelledReason
		m.mu.Lock()
		if m.closed {
			reason = chatstate.InterruptedReason
		}
		m.mu.Unlock()
		m.resolve(func(p model.ChatMessage) model.ChatMessage { return p.Fail(reason) })
	}
}

func (m *Manager) resolve(fn func(model.ChatMessage) model.ChatMessage) {
	m.mu.Lock()
	id := m.pendingID
	m.pendingID = ""
	m.mu.Unlock()

	if id == "" {
		return
	}
	p, ok := m.bus.Find(id)
	if !ok {
		// History was cleared while waiting.
		return
	}
	m.bus.Replace(id, fn(p))
}
