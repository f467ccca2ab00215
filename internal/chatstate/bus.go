// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/observable"
)

// ErrNotFound is returned when no message has the requested id.
var ErrNotFound = errors.New("message not found")

// InterruptedReason replaces placeholders that were still pending when the
// previous session ended.
const InterruptedReason = "The response was interrupted."

// Persister is the durable side of the bus. storage.HistoryStore satisfies
// it; implementations must fail soft.
type Persister interface {
	Load() []model.ChatMessage
	Save(msgs []model.ChatMessage)
	Clear()
}

// =============================================================================
// BUS
// =============================================================================

// Bus holds the canonical ordered chat history.
//
// Every mutation updates memory, flushes the full sequence to the Persister,
// and then notifies observers with a copy of the new sequence, all before
// the mutating call returns. Observers are called on the mutating goroutine;
// they may read the Bus but must not mutate it synchronously.
type Bus struct {
	// writeMu serializes mutations together with their notification.
	writeMu sync.Mutex

	mu    sync.Mutex
	msgs  []model.ChatMessage
	index map[string]int

	store    Persister
	messages *observable.Value[[]model.ChatMessage]
	logger   *zap.Logger
}

// New creates a Bus seeded from store. Placeholders left pending by an
// earlier session are resolved to an error message and the repaired history
// is written back.
func New(store Persister, logger *zap.Logger) *Bus {
	logger = logging.OrNop(logger)
	if store == nil {
		store = nopPersister{}
	}

	b := &Bus{
		store:  store,
		logger: logger.Named("chatstate"),
	}

	loaded := store.Load()
	repaired := 0
	for i, m := range loaded {
		if m.Pending {
			loaded[i] = m.Fail(InterruptedReason)
			repaired++
		}
	}
	b.reset(loaded)
	if repaired > 0 {
		b.logger.Info("resolved interrupted placeholders", zap.Int("count", repaired))
		b.store.Save(b.msgs)
	}

	b.messages = observable.New(model.Clone(b.msgs))
	b.logger.Debug("history loaded", zap.Int("messages", len(b.msgs)))
	return b
}

// Append adds m to the end of the history. A message without an id, or with
// an id already in use, is given a fresh one.
func (b *Bus) Append(m model.ChatMessage) model.ChatMessage {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	if _, dup := b.index[m.ID]; m.ID == "" || dup {
		m.ID = model.NewID()
	}
	b.index[m.ID] = len(b.msgs)
	b.msgs = append(b.msgs, m)
	b.commit()
	return m
}

// Replace overwrites the message with id in place. It reports false, and
// changes nothing, when no such message exists. If updated carries a
// different id the slot is re-keyed; an empty id keeps the old one.
func (b *Bus) Replace(id string, updated model.ChatMessage) bool {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	pos, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		return false
	}

	if updated.ID == "" {
		updated.ID = id
	}
	if updated.ID != id {
		if _, taken := b.index[updated.ID]; taken {
			updated.ID = id
		} else {
			delete(b.index, id)
			b.index[updated.ID] = pos
		}
	}

	b.msgs[pos] = updated
	b.commit()
	return true
}

// Clear empties the history and removes the persisted record.
func (b *Bus) Clear() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	b.reset(nil)
	b.store.Clear()
	b.mu.Unlock()

	b.messages.Set([]model.ChatMessage{})
}

// SetMessages replaces the whole history with msgs.
func (b *Bus) SetMessages(msgs []model.ChatMessage) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	b.reset(model.Clone(msgs))
	b.commit()
}

// Snapshot returns a copy of the current history.
func (b *Bus) Snapshot() []model.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.msgs)
}

// Len returns the number of messages.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// Find returns the message with id.
func (b *Bus) Find(id string) (model.ChatMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.index[id]
	if !ok {
		return model.ChatMessage{}, false
	}
	return b.msgs[pos], true
}

// LastAnswer returns the most recent resolved, non-error AI message.
func (b *Bus) LastAnswer() (model.ChatMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.msgs) - 1; i >= 0; i-- {
		m := b.msgs[i]
		if m.Role == model.RoleAI && !m.Pending && !m.IsError && m.Text != "" {
			return m, true
		}
	}
	return model.ChatMessage{}, false
}

// Subscribe calls fn with the current history and again after every
// mutation. The returned function cancels the subscription.
func (b *Bus) Subscribe(fn func([]model.ChatMessage)) (unsubscribe func()) {
	return b.messages.Subscribe(fn)
}

// Messages exposes the underlying observable.
func (b *Bus) Messages() *observable.Value[[]model.ChatMessage] {
	return b.messages
}

// =============================================================================
// INTERNAL
// =============================================================================

func (b *Bus) reset(msgs []model.ChatMessage) {
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	b.msgs = msgs
	b.index = make(map[string]int, len(msgs))
	for i := range b.msgs {
		if _, dup := b.index[b.msgs[i].ID]; b.msgs[i].ID == "" || dup {
			b.msgs[i].ID = model.NewID()
		}
		b.index[b.msgs[i].ID] = i
	}
}

// commit persists the sequence, releases b.mu and publishes a copy. The
// caller holds writeMu and b.mu.
func (b *Bus) commit() {
	b.store.Save(b.msgs)
	snapshot := model.Clone(b.msgs)
	b.mu.Unlock()

	b.messages.Set(snapshot)
}

type nopPersister struct{}

func (nopPersister) Load() []model.ChatMessage { return nil }
func (nopPersister) Save([]model.ChatMessage)  {}
func (nopPersister) Clear()                    {}
