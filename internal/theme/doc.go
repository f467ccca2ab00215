// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme stores the light/dark/system preference and applies the
// resolved theme to the terminal renderer.
//
// The preference is persisted verbatim. System is resolved against the
// terminal's background color each time it is applied.
package theme
