// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the novagem command tree.
//
// Running novagem with no arguments starts the full-screen chat interface.
// The subcommands cover scripting and maintenance.
//
// # Key Types
//
//   - App: Services shared by every command (config, storage, bus, bridge,
//     session, theme store), opened in the root PersistentPreRunE
//   - ExitError: Carries an exit code for failures already reported
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// # Commands Overview
//
//   - ask: Single question; reads stdin when no argument is given
//   - chat: Line-mode REPL with input history
//   - history: list, show, clear and export the stored messages
//   - theme: Show, set or toggle the theme preference
//   - config: show, get, set and path
//   - version: Build information
package cli
