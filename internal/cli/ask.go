// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/session"
	"github.com/jeranaias/novagem/internal/storage"
)

// maxStdinQuestion caps a question read from stdin.
const maxStdinQuestion = 64 * 1024

// askResult is the --json output of ask.
type askResult struct {
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// =============================================================================
// ASK COMMAND
// =============================================================================

func newAskCommand(current func() *App) *cobra.Command {
	var (
		raw     bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the answer.

The question and answer are recorded in the chat history. With no arguments
the question is read from stdin.

Examples:
  novagem ask "What is the capital of France?"
  echo "Explain TCP" | novagem ask
  novagem ask --json "2+2?" | jq .answer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := current()

			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				q, err := readQuestion(cmd.InOrStdin())
				if err != nil {
					return err
				}
				question = q
			}

			msg, err := app.Session.Ask(cmd.Context(), question)
			if err != nil {
				if errors.Is(err, session.ErrEmptyQuestion) {
					return errors.New("question is empty")
				}
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeAskJSON(out, question, msg)
			}

			if msg.IsError {
				fmt.Fprintln(cmd.ErrOrStderr(), RenderConditional(ErrorStyle, msg.Text))
				return &ExitError{Code: 1}
			}

			text := msg.Text
			if !raw && app.Config.UI.Markdown && IsStdoutTTY() {
				text = renderMarkdown(text, GetTerminalWidth(), app.Themes.Effective().IsDark(), app.Logger)
			}
			fmt.Fprintln(out, strings.TrimRight(text, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer without markdown rendering")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

// readQuestion reads a question from r, refusing an interactive stdin.
func readQuestion(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && f == os.Stdin && IsTTY() {
		return "", errors.New("no question given; pass it as an argument or pipe it on stdin")
	}
	data, err := io.ReadAll(io.LimitReader(r, maxStdinQuestion))
	if err != nil {
		return "", fmt.Errorf("read question: %w", err)
	}
	return string(data), nil
}

func writeAskJSON(w io.Writer, question string, msg model.ChatMessage) error {
	res := askResult{
		Question:  strings.TrimSpace(question),
		Timestamp: storage.FormatTimestamp(msg.Timestamp),
	}
	if msg.IsError {
		res.Error = strings.TrimPrefix(msg.Text, model.ErrorPrefix)
	} else {
		res.Answer = msg.Text
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if msg.IsError {
		return &ExitError{Code: 1}
	}
	return nil
}

// renderMarkdown renders text with glamour, falling back to plain text.
func renderMarkdown(text string, width int, dark bool, logger *zap.Logger) string {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		logger.Debug("markdown renderer unavailable", zap.Error(err))
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
