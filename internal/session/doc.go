// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs a NovaGem conversation on top of the chat state bus
// and the request bridge.
//
// # Key Types
//
//   - Manager: submits questions and resolves answer placeholders
//
// # Usage
//
//	mgr := session.NewManager(bus, bridge, logger)
//	defer mgr.Close()
//
//	if _, err := mgr.Submit(ctx, "What is Go?"); errors.Is(err, session.ErrBusy) {
//	    // wait for the current answer
//	}
package session
