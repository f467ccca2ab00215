// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatstate holds the canonical chat history as observable state.
//
// The Bus is the single owner of the message sequence. Presentation code
// appends user messages and placeholders, replaces placeholders when the
// answer arrives, and subscribes to redraw. Every mutation is flushed to the
// Persister before the call returns, so a read right after a write sees the
// same data a fresh session would load.
package chatstate
