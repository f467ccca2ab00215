// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipAppAnnotation marks commands that run without opening the app.
const skipAppAnnotation = "novagem/skip-app"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose    bool
	configPath string
	endpoint   string
}

// ExitError carries a process exit code for failures that have already
// been reported to the user.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the novagem command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	var app *App

	root := &cobra.Command{
		Use:   "novagem",
		Short: "NovaGem - terminal chat client",
		Long: `NovaGem is a terminal chat client for a question-answering AI backend.

Run without arguments to start the interactive chat interface. History and
the theme preference are stored under ~/.novagem (or $NOVAGEM_HOME).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipAppAnnotation] == "true" {
				return nil
			}
			var err error
			app, err = openApp(cmd.Context(), flags)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			err := app.Close()
			app = nil
			return err
		},
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: ~/.novagem/config.toml)")
	root.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "Backend endpoint URL (overrides config)")

	current := func() *App { return app }

	root.RunE = tuiRunE(current)
	root.Flags().Bool("no-splash", false, "Skip the splash screen")

	root.AddCommand(
		newAskCommand(current),
		newChatCommand(current),
		newHistoryCommand(current),
		newThemeCommand(current),
		newConfigCommand(flags),
		newVersionCommand(),
	)

	// Cobra skips PersistentPostRunE when RunE fails, so failures release
	// the app here.
	var closeOnError func(c *cobra.Command)
	closeOnError = func(c *cobra.Command) {
		if run := c.RunE; run != nil {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				err := run(cmd, args)
				if err != nil && app != nil {
					_ = app.Close()
					app = nil
				}
				return err
			}
		}
		for _, sub := range c.Commands() {
			closeOnError(sub)
		}
	}
	closeOnError(root)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		fmt.Fprintln(os.Stderr, RenderConditional(ErrorStyle, "Error: "+err.Error()))
		return 1
	}
	return 0
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipAppAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "novagem %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
