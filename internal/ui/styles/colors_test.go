// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestAdaptiveColorsHaveBothSides(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Violet":         Violet,
		"Teal":           Teal,
		"Rose":           Rose,
		"Amber":          Amber,
		"TextPrimary":    TextPrimary,
		"TextMuted":      TextMuted,
		"AIBubbleFg":     AIBubbleFg,
		"UserBubbleFg":   UserBubbleFg,
		"ErrorBubbleFg":  ErrorBubbleFg,
		"SystemBubbleFg": SystemBubbleFg,
	}
	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s must define both light and dark values", name)
		}
		if !strings.HasPrefix(c.Light, "#") || !strings.HasPrefix(c.Dark, "#") {
			t.Errorf("%s should use hex colors, got %q/%q", name, c.Light, c.Dark)
		}
	}
}

func TestStatusRenderersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("history cleared")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("output %q missing indicator %q", out, tt.indicator)
			}
			if !strings.Contains(out, "history cleared") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}
