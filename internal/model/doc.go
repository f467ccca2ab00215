// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat message type shared by the state bus,
// the persistence store and the presentation layer.
//
// # Key Types
//
//   - ChatMessage: a single entry in the chat history
//   - Role: who produced a message (user, ai, system)
//
// # Usage
//
//	user := model.NewUserMessage("What is Go?")
//	placeholder := model.NewPendingMessage()
//	answer := placeholder.Resolve("Go is a programming language.")
package model
