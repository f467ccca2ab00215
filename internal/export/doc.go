// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides chat history export for novagem.
//
// # Key Types
//
//   - Format: Export format enumeration (Markdown, JSON, YAML)
//   - Exporter: Main export interface
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - Markdown: Human-readable transcript; AI answers keep their markdown
//   - JSON: Machine-readable document with metadata
//   - YAML: Same document as JSON, for people who prefer to read YAML
//
// Pending placeholders are transient and are never exported.
//
// # Usage
//
//	data, err := export.Markdown(bus.Snapshot())
//
// Export to a file in a directory:
//
//	path, err := export.ToFile(msgs, export.NewYAMLExporter(nil), opts)
package export
