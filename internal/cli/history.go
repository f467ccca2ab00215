// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/export"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/storage"
	"github.com/jeranaias/novagem/internal/util"
)

// =============================================================================
// HISTORY COMMAND
// =============================================================================

func newHistoryCommand(current func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect, export or clear the chat history",
	}
	cmd.AddCommand(
		newHistoryListCommand(current),
		newHistoryShowCommand(current),
		newHistoryClearCommand(current),
		newHistoryExportCommand(current),
	)
	return cmd
}

func newHistoryListCommand(current func() *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored messages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs := current().Bus.Snapshot()
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, RenderConditional(DimStyle, "No messages yet."))
				return nil
			}
			start := 0
			if limit > 0 && len(msgs) > limit {
				start = len(msgs) - limit
			}
			writeHistoryListFrom(out, msgs, start, GetTerminalWidth())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
	return cmd
}

func newHistoryShowCommand(current func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <n>",
		Short: "Print one message in full (1-based, as numbered by list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs := current().Bus.Snapshot()
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(msgs) {
				return fmt.Errorf("no message %q (history has %d)", args[0], len(msgs))
			}
			m := msgs[n-1]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n",
				RenderConditional(roleStyle(m), m.Role.DisplayName()),
				RenderConditional(DimStyle, storage.FormatTimestamp(m.Timestamp)))
			fmt.Fprintln(out, RenderSeparator(min(GetTerminalWidth(), 70)))
			fmt.Fprintln(out, m.Text)
			return nil
		},
	}
}

func newHistoryClearCommand(current func() *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := current()
			if !yes {
				if !IsTTY() {
					return errors.New("refusing to clear history without --yes")
				}
				fmt.Fprint(cmd.OutOrStdout(), "Delete all chat history? This cannot be undone. (y/n) ")
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			app.Session.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), RenderConditional(SuccessStyle, "Chat history cleared."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newHistoryExportCommand(current func() *App) *cobra.Command {
	var (
		format   string
		output   string
		toStdout bool
		open     bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the chat history as Markdown, JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			opts := export.DefaultOptions()
			if output != "" {
				opts.OutputDir = config.ExpandHome(output)
			}
			opts.OpenAfterExport = open

			exporter, err := export.NewExporter(f, opts)
			if err != nil {
				return err
			}
			msgs := current().Bus.Snapshot()

			if toStdout {
				data, err := exporter.Export(msgs)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path, err := export.ToFile(msgs, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderConditional(SuccessStyle, "Exported to "+path))
			return nil
		},
	}
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown),
		"Export format ("+strings.Join(names, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: current directory)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to stdout instead of a file")
	cmd.Flags().BoolVar(&open, "open", false, "Open the file after exporting")
	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// writeHistoryList prints one numbered, single-line preview per message.
func writeHistoryList(w io.Writer, msgs []model.ChatMessage, width int) {
	writeHistoryListFrom(w, msgs, 0, width)
}

func writeHistoryListFrom(w io.Writer, msgs []model.ChatMessage, start, width int) {
	digits := len(strconv.Itoa(len(msgs)))
	for i := start; i < len(msgs); i++ {
		m := msgs[i]
		num := fmt.Sprintf("%*d", digits, i+1)
		label := util.PadWidth(m.Role.DisplayName(), 8)
		prefix := num + "  " + label + "  "

		text := util.SingleLine(m.Text)
		if m.Pending {
			text = "(waiting for answer)"
		}
		preview := util.TruncateWidth(text, max(width-util.StringWidth(prefix), 10))

		fmt.Fprintf(w, "%s  %s  %s\n",
			RenderConditional(DimStyle, num),
			RenderConditional(roleStyle(m), label),
			preview)
	}
}

func roleStyle(m model.ChatMessage) lipgloss.Style {
	switch {
	case m.IsError:
		return ErrorStyle
	case m.Role == model.RoleUser:
		return RoleUserStyle
	case m.Role == model.RoleAI:
		return RoleAIStyle
	default:
		return DimStyle
	}
}
