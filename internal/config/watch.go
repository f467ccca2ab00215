// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FILE WATCHER
// =============================================================================

// DefaultWatchDebounce collapses the burst of events an editor save produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange. Reload failures go to onErr, which may be nil.
//
// The parent directory is watched rather than the file itself so editors
// that save by rename keep being observed. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config), onErr func(error)) error {
	return watch(ctx, path, DefaultWatchDebounce, onChange, onErr)
}

func watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config), onErr func(error)) error {
	if onErr == nil {
		onErr = func(error) {}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// The timer starts stopped; events arm it.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case <-timer.C:
			if _, statErr := os.Stat(abs); statErr != nil {
				// Removed or mid-rename; the next Create re-arms the timer.
				continue
			}
			cfg, loadErr := LoadFromPath(abs)
			if loadErr != nil {
				onErr(loadErr)
				continue
			}
			onChange(cfg)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onErr(fmt.Errorf("config watcher: %w", werr))
		}
	}
}
