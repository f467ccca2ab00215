// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for novagem.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Endpoint, transport selection and limits
//   - StorageConfig: History/theme store backend and data directory
//   - UIConfig, LogConfig: Terminal UI and logger settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NOVAGEM_*)
//   - ~/.novagem/config.toml
//   - ~/.novagem/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	endpoint := cfg.API.Endpoint
//
// Watch reloads the active file on change; the TUI uses it to re-point the
// HTTP transport without a restart.
package config
