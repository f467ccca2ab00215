// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger used across novagem.
//
// The TUI owns the terminal, so logs go to a file (JSON lines) and never to
// stdout. An empty file path yields a no-op logger.
package logging
