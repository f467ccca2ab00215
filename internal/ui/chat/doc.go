// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model for the novagem TUI.

# Screens

  - Splash - shown for ui.splash_ms, any key skips it
  - Chat - history viewport, welcome prompts on an empty chat, input line
  - Settings - theme preference and clear history

# State Flow

The model never reads the chat state directly. Subscribe attaches to the
history bus, the bridge state and the theme store and turns each change into
a message (MessagesChangedMsg, BridgeStateMsg, PreferenceChangedMsg,
EffectiveChangedMsg). Subscribers run on whatever goroutine published, often
inside Update itself, so they post to a Pump that forwards to the program
from its own goroutine.

User intent goes the other way, as calls on session.Manager (Submit,
Dismiss, ClearHistory) and theme.Store (SetPreference, Toggle).

# Usage

	err := chat.Run(ctx, chat.Deps{
	    Session: mgr,
	    Themes:  themes,
	    Config:  cfg,
	    Logger:  logger,
	}, chat.RunOptions{ConfigPath: config.ActivePath(), AltScreen: true})
*/
package chat
