// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI components for the novagem TUI.

Each component is a small Bubble Tea model or renderer styled through
styles.Theme. Interactive components report user intent as messages for the
chat model to act on; none of them touch the chat state directly.

# Components

  - Splash (splash.go) - Logo screen with a timer; emits SplashDoneMsg.
  - Welcome (welcome.go) - Greeting and example prompts; emits PromptSelectedMsg.
  - Settings (settings.go) - Theme preference and clear history; emits
    ThemeChosenMsg, ClearHistoryConfirmedMsg and SettingsClosedMsg.
  - MessageBubble, MessageList (message.go) - Chat history rendering,
    including the thinking placeholder and error messages.
  - Markdown (markdown.go) - Glamour rendering of answers.
  - CodeBlock (codeblock.go) - Chroma highlighting of fenced code.
*/
package components
