// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/logging"
)

// RunOptions configures Run.
type RunOptions struct {
	// ConfigPath is watched for changes when set.
	ConfigPath string

	// OnConfigChange runs on the watcher goroutine before the UI is told
	// about a reloaded config. The CLI uses it to re-point the transport.
	OnConfigChange func(*config.Config)

	// AltScreen runs the program in the alternate screen buffer.
	AltScreen bool

	// ProgramOptions are appended to the program's options.
	ProgramOptions []tea.ProgramOption
}

// =============================================================================
// RUN
// =============================================================================

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
// The program, the message pump and the config watcher run in one errgroup;
// when the program exits the others are stopped.
func Run(ctx context.Context, deps Deps, opts RunOptions) error {
	logger := deps.Logger
	logger = logging.OrNop(logger)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	m := New(runCtx, deps)

	progOpts := []tea.ProgramOption{tea.WithContext(runCtx), tea.WithMouseCellMotion()}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	progOpts = append(progOpts, opts.ProgramOptions...)
	program := tea.NewProgram(m, progOpts...)

	pump := NewPump(program)
	unsubscribe := m.Subscribe(pump)
	defer unsubscribe()

	g.Go(func() error {
		defer stop()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return pump.Run(runCtx)
	})

	if opts.ConfigPath != "" {
		g.Go(func() error {
			err := config.Watch(runCtx, opts.ConfigPath,
				func(cfg *config.Config) {
					logger.Info("config reloaded", zap.String("path", opts.ConfigPath))
					if opts.OnConfigChange != nil {
						opts.OnConfigChange(cfg)
					}
					pump.Post(ConfigReloadedMsg{Config: cfg})
				},
				func(err error) {
					logger.Warn("config reload failed", zap.Error(err))
					pump.Post(StatusMsg{Text: "Config not reloaded: " + err.Error(), IsError: true})
				},
			)
			if err != nil {
				// A missing watcher is not fatal to the session.
				logger.Warn("config watcher unavailable", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}
