// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/novagem/internal/theme"
)

// =============================================================================
// THEME COMMAND
// =============================================================================

func newThemeCommand(current func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the theme preference",
		Long: `Show or change the theme preference.

The preference is one of light, dark or system. With system the effective
theme follows the terminal background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printTheme(cmd.OutOrStdout(), current().Themes)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "set <light|dark|system>",
			Short:     "Set the theme preference",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"light", "dark", "system"},
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := theme.ParsePreference(args[0])
				if err != nil {
					return err
				}
				themes := current().Themes
				if err := themes.SetPreference(p); err != nil {
					return err
				}
				printTheme(cmd.OutOrStdout(), themes)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Cycle the preference: light, dark, system",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				themes := current().Themes
				themes.Toggle()
				printTheme(cmd.OutOrStdout(), themes)
				return nil
			},
		},
	)
	return cmd
}

func printTheme(w io.Writer, themes *theme.Store) {
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Preference"), RenderConditional(ValueStyle, string(themes.Current())))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Effective"), RenderConditional(ValueStyle, string(themes.Effective())))
}
