// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/theme"
)

// =============================================================================
// STATE EVENTS
// =============================================================================

// These messages carry observable state into the Bubble Tea loop. They are
// posted from subscriber callbacks through a Pump, never sent directly.

// MessagesChangedMsg carries a new history snapshot.
type MessagesChangedMsg struct {
	Messages []model.ChatMessage
}

// BridgeStateMsg carries the bridge's latest state.
type BridgeStateMsg struct {
	State api.State
}

// PreferenceChangedMsg carries the stored theme preference.
type PreferenceChangedMsg struct {
	Preference theme.Preference
}

// EffectiveChangedMsg carries the resolved light/dark theme.
type EffectiveChangedMsg struct {
	Effective theme.Effective
}

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// UI EVENTS
// =============================================================================

// StatusMsg sets the status bar text.
type StatusMsg struct {
	Text    string
	IsError bool
}
