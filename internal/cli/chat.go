// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/session"
	"github.com/jeranaias/novagem/internal/theme"
	"github.com/jeranaias/novagem/internal/ui/components"
)

// chatPrompt is the REPL prompt.
const chatPrompt = "novagem> "

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line, recording non-empty input in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(current func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode chat session",
		Long: `Start a line-mode chat session with input history.

Type a question and press enter. Ctrl+C cancels a pending answer; Ctrl+D
or /quit exits. Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() {
				return errNoTerminal
			}
			in := NewChatCLI()
			defer in.Close()

			r := &repl{
				app:  current(),
				in:   in,
				out:  cmd.OutOrStdout(),
				err:  cmd.ErrOrStderr(),
				copy: clipboard.WriteAll,
				tty:  IsStdoutTTY(),
			}
			return r.run(cmd.Context())
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl is the chat loop. Each question is answered before the next prompt.
type repl struct {
	app  *App
	in   lineReader
	out  io.Writer
	err  io.Writer
	copy func(string) error
	tty  bool
}

var errQuit = errors.New("quit")

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, RenderConditional(TitleStyle, "NovaGem chat")+" "+
		RenderConditional(DimStyle, "(/help for commands, Ctrl+D to exit)"))

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if err := r.command(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(r.err, RenderConditional(ErrorStyle, err.Error()))
			}
			continue
		}

		r.ask(ctx, line)
	}
}

// ask answers one question. Ctrl+C cancels the request, not the session.
func (r *repl) ask(ctx context.Context, question string) {
	askCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if r.tty {
		fmt.Fprint(r.out, RenderConditional(DimStyle, "Thinking..."))
	}
	msg, err := r.app.Session.Ask(askCtx, question)
	if r.tty {
		fmt.Fprint(r.out, "\r\033[K")
	}

	switch {
	case errors.Is(err, context.Canceled):
		r.app.Session.Dismiss()
		fmt.Fprintln(r.err, RenderConditional(WarningStyle, session.CancelledReason))
	case err != nil:
		fmt.Fprintln(r.err, RenderConditional(ErrorStyle, err.Error()))
	case msg.IsError:
		fmt.Fprintln(r.err, RenderConditional(ErrorStyle, msg.Text))
	default:
		text := msg.Text
		if r.tty && r.app.Config.UI.Markdown {
			text = renderMarkdown(text, GetTerminalWidth(), r.app.Themes.Effective().IsDark(), r.app.Logger)
		}
		fmt.Fprintln(r.out, strings.TrimRight(text, "\n"))
	}
}

// command runs a slash command.
func (r *repl) command(line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/h":
		fmt.Fprint(r.out, replHelp)

	case "/clear", "/c":
		r.app.Session.ClearHistory()
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "Chat history cleared."))

	case "/history":
		msgs := r.app.Bus.Snapshot()
		if len(msgs) == 0 {
			fmt.Fprintln(r.out, RenderConditional(DimStyle, "No messages yet."))
			return nil
		}
		writeHistoryList(r.out, msgs, GetTerminalWidth())

	case "/theme":
		if len(args) == 0 {
			fmt.Fprintf(r.out, "Theme: %s (effective %s)\n", r.app.Themes.Current(), r.app.Themes.Effective())
			return nil
		}
		p, err := theme.ParsePreference(args[0])
		if err != nil {
			return err
		}
		if err := r.app.Themes.SetPreference(p); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Theme set to %s.\n", p)

	case "/copy":
		last, ok := r.app.Bus.LastAnswer()
		if !ok {
			return errors.New("no answer to copy yet")
		}
		if err := r.copy(last.Text); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "Answer copied to clipboard."))

	case "/copycode":
		last, ok := r.app.Bus.LastAnswer()
		if !ok {
			return errors.New("no answer to copy yet")
		}
		block, ok := components.LastCodeBlock(last.Text)
		if !ok {
			return errors.New("no code block in the last answer")
		}
		if err := r.copy(block.Code); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "Code block copied to clipboard."))

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

const replHelp = `Commands:
  /help, /h            Show this help
  /history             List the chat history
  /clear, /c           Clear the chat history
  /theme [pref]        Show or set the theme (light, dark, system)
  /copy                Copy the last answer to the clipboard
  /copycode            Copy the last code block of the last answer
  /quit, /q            Exit
`
