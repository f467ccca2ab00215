// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/storage"
	"github.com/jeranaias/novagem/internal/util"
)

// ErrNothingToExport is returned when the history holds no exportable messages.
var ErrNothingToExport = errors.New("no messages to export")

// nowFunc is replaced in tests for stable output.
var nowFunc = time.Now

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for history exporters.
type Exporter interface {
	// Export converts the history to the target format.
	Export(msgs []model.ChatMessage) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatYAML}
}

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// NewExporter returns the exporter for f.
func NewExporter(f Format, opts *Options) (Exporter, error) {
	switch f {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatYAML:
		return NewYAMLExporter(opts), nil
	}
	return nil, fmt.Errorf("unsupported export format: %s", f)
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the header (export time, message count).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Title heads the Markdown transcript.
	Title string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Title:             "NovaGem Chat",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Markdown renders the history as a Markdown transcript with default options.
func Markdown(msgs []model.ChatMessage) ([]byte, error) {
	return NewMarkdownExporter(nil).Export(msgs)
}

// JSON renders the history as an indented JSON document.
func JSON(msgs []model.ChatMessage) ([]byte, error) {
	return NewJSONExporter(nil).Export(msgs)
}

// YAML renders the history as a YAML document.
func YAML(msgs []model.ChatMessage) ([]byte, error) {
	return NewYAMLExporter(nil).Export(msgs)
}

// ToFile exports the history to a new file in opts.OutputDir and returns its
// path.
func ToFile(msgs []model.ChatMessage, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(msgs)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("novagem_chat_%s%s",
		nowFunc().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal - file was still created successfully
			fmt.Fprintf(os.Stderr, "Warning: Could not open file: %v\n", err)
		}
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// exportable drops pending placeholders and reports ErrNothingToExport when
// nothing remains.
func exportable(msgs []model.ChatMessage) ([]model.ChatMessage, error) {
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Pending {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, ErrNothingToExport
	}
	return out, nil
}

// document is the shared JSON/YAML shape.
type document struct {
	Generator string          `json:"generator" yaml:"generator"`
	Exported  string          `json:"exported" yaml:"exported"`
	Count     int             `json:"count" yaml:"count"`
	Messages  []documentEntry `json:"messages" yaml:"messages"`
}

type documentEntry struct {
	ID        string `json:"id" yaml:"id"`
	Role      string `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	IsError   bool   `json:"isError,omitempty" yaml:"isError,omitempty"`
}

func newDocument(msgs []model.ChatMessage, opts *Options) document {
	doc := document{
		Generator: "novagem",
		Exported:  storage.FormatTimestamp(nowFunc()),
		Count:     len(msgs),
		Messages:  make([]documentEntry, 0, len(msgs)),
	}
	for _, m := range msgs {
		e := documentEntry{
			ID:      m.ID,
			Role:    string(m.Role),
			Text:    m.Text,
			IsError: m.IsError,
		}
		if opts.IncludeTimestamps {
			e.Timestamp = storage.FormatTimestamp(m.Timestamp)
		}
		doc.Messages = append(doc.Messages, e)
	}
	return doc
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
