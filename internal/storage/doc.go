// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for NovaGem.
//
// A KV is a small string-valued key-value store with three backends: a
// single JSON file written atomically (the default), a SQLite database, and
// process memory. HistoryStore keeps the chat history under one key and the
// theme store keeps its preference under another.
//
// Storage is a cache, not a dependency: HistoryStore never returns an error,
// and OpenOrMemory falls back to memory when the configured backend can't be
// opened.
//
// # Usage
//
//	kv := storage.OpenOrMemory(storage.BackendFile, dataDir, logger)
//	defer kv.Close()
//	history := storage.NewHistoryStore(kv, logger)
//	msgs := history.Load()
package storage
