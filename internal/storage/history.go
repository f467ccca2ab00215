// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/model"
)

// =============================================================================
// HISTORY RECORD
// =============================================================================

// historyRecord is the persisted form of a ChatMessage. Earlier releases
// wrote the role under "type" or "sender"; both are still read.
type historyRecord struct {
	ID        string          `json:"id,omitempty"`
	Role      string          `json:"role,omitempty"`
	Type      string          `json:"type,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	IsError   bool            `json:"isError,omitempty"`
	Pending   bool            `json:"pending,omitempty"`
}

func toRecord(m model.ChatMessage) historyRecord {
	ts, _ := json.Marshal(FormatTimestamp(m.Timestamp))
	return historyRecord{
		ID:        m.ID,
		Role:      string(m.Role),
		Text:      m.Text,
		Timestamp: ts,
		IsError:   m.IsError,
		Pending:   m.Pending,
	}
}

func (r historyRecord) toMessage() model.ChatMessage {
	role := r.Role
	if role == "" {
		role = r.Type
	}
	if role == "" {
		role = r.Sender
	}

	id := r.ID
	if id == "" {
		id = model.NewID()
	}

	return model.ChatMessage{
		ID:        id,
		Role:      model.ParseRole(role),
		Text:      r.Text,
		Timestamp: parseRawTimestamp(r.Timestamp),
		IsError:   r.IsError,
		Pending:   r.Pending,
	}
}

// FormatTimestamp renders t as an RFC 3339 UTC string with nanoseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses an RFC 3339 string as written by FormatTimestamp or
// by a browser's Date.toISOString.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseRawTimestamp accepts a JSON string or a number of epoch milliseconds.
// Unreadable values become the zero time rather than dropping the message.
func parseRawTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := ParseTimestamp(s); err == nil {
			return t
		}
		return time.Time{}
	}

	if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists the ordered chat history under HistoryKey. Every
// method fails soft: storage problems are logged and never returned.
type HistoryStore struct {
	kv     KV
	logger *zap.Logger
}

// NewHistoryStore creates a HistoryStore over kv. A nil kv behaves like a
// platform with no persistent storage.
func NewHistoryStore(kv KV, logger *zap.Logger) *HistoryStore {
	logger = logging.OrNop(logger)
	return &HistoryStore{kv: kv, logger: logger.Named("history")}
}

// Load reads the persisted history. It returns an empty, non-nil sequence
// when nothing is stored or the record can't be read.
func (h *HistoryStore) Load() []model.ChatMessage {
	empty := []model.ChatMessage{}
	if h.kv == nil {
		return empty
	}

	raw, ok, err := h.kv.Get(HistoryKey)
	if err != nil {
		h.logger.Warn("load history failed", zap.Error(err))
		return empty
	}
	if !ok || raw == "" {
		return empty
	}

	var records []historyRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		h.logger.Warn("history record unreadable, starting empty", zap.Error(err))
		return empty
	}

	msgs := make([]model.ChatMessage, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, r.toMessage())
	}
	return msgs
}

// Save overwrites the persisted history with msgs.
func (h *HistoryStore) Save(msgs []model.ChatMessage) {
	if h.kv == nil {
		return
	}

	records := make([]historyRecord, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, toRecord(m))
	}

	data, err := json.Marshal(records)
	if err != nil {
		h.logger.Warn("encode history failed", zap.Error(err))
		return
	}
	if err := h.kv.Set(HistoryKey, string(data)); err != nil {
		h.logger.Warn("save history failed",
			zap.Int("messages", len(msgs)),
			zap.Error(err))
	}
}

// Clear removes the persisted record. It is a no-op if nothing is stored.
func (h *HistoryStore) Clear() {
	if h.kv == nil {
		return
	}
	if err := h.kv.Remove(HistoryKey); err != nil {
		h.logger.Warn("clear history failed", zap.Error(err))
	}
}
