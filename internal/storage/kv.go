// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable is returned when the backing store can't be reached.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage closed")
)

// =============================================================================
// KEY-VALUE STORE
// =============================================================================

// Well-known keys.
const (
	// HistoryKey holds the JSON-encoded chat history.
	HistoryKey = "novagem-chat-history"

	// ThemeKey holds the theme preference literal.
	ThemeKey = "novagem-theme"
)

// KV is a string-valued key-value store, the local equivalent of browser
// local storage.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any prior value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Backends lists the valid backend names.
func Backends() []Backend {
	return []Backend{BackendFile, BackendSQLite, BackendMemory}
}

// ParseBackend converts a config string to a Backend.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return BackendFile, nil
	}
	names := make([]string, 0, len(Backends()))
	for _, known := range Backends() {
		if b == known {
			return b, nil
		}
		names = append(names, string(known))
	}
	return "", fmt.Errorf("%w: %q (want %s)", ErrUnknownBackend, s, strings.Join(names, ", "))
}

// Open opens the named backend rooted at dataDir.
func Open(backend Backend, dataDir string) (KV, error) {
	switch backend {
	case BackendFile, "":
		return OpenFile(filepath.Join(dataDir, "store.json"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "novagem.db"))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// OpenOrMemory opens the named backend and falls back to an in-memory store
// when it can't be opened. The session keeps working; it just won't survive
// a restart.
func OpenOrMemory(backend Backend, dataDir string, logger *zap.Logger) KV {
	logger = logging.OrNop(logger)
	kv, err := Open(backend, dataDir)
	if err != nil {
		logger.Warn("persistent storage unavailable, using memory",
			zap.String("backend", string(backend)),
			zap.String("data_dir", dataDir),
			zap.Error(err))
		return NewMemory()
	}
	return kv
}
