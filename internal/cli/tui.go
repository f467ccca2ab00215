// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/ui/chat"
)

// errNoTerminal is returned when the TUI is started without a terminal.
var errNoTerminal = errors.New("the chat interface needs a terminal; use 'novagem ask' for scripts")

// tuiRunE starts the full-screen chat interface.
func tuiRunE(current func() *App) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !IsStdoutTTY() || !IsTTY() {
			return errNoTerminal
		}
		app := current()

		cfg := app.Config.Clone()
		if noSplash, _ := cmd.Flags().GetBool("no-splash"); noSplash {
			cfg.UI.SplashMs = 0
		}

		return chat.Run(cmd.Context(), chat.Deps{
			Session: app.Session,
			Themes:  app.Themes,
			Config:  cfg,
			Logger:  app.Logger,
			Version: Version,
		}, chat.RunOptions{
			ConfigPath: app.ConfigPath,
			OnConfigChange: func(c *config.Config) {
				app.ApplyConfig(c)
			},
			AltScreen: true,
		})
	}
}
