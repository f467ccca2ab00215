// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api connects NovaGem to the question-answering service.
//
// The Bridge owns the request lifecycle and publishes it on observable
// channels: a tagged State plus the derived Loading, Answer and Error
// values that views bind to. A Transport carries one question to the
// service; HTTPTransport posts to the backend's /api/ask endpoint and
// GeminiTransport calls the Gemini API directly.
//
// Every failure ends as a user-facing message on the error channel. See
// Classify for the mapping.
//
// # Usage
//
//	bridge := api.NewBridge(api.NewHTTPTransport(endpoint), logger)
//	defer bridge.Close()
//	bridge.Answer().Subscribe(func(a *string) { ... })
//	_ = bridge.Ask(ctx, "What is Go?")
package api
