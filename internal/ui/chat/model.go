// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/session"
	"github.com/jeranaias/novagem/internal/theme"
	"github.com/jeranaias/novagem/internal/ui/components"
	"github.com/jeranaias/novagem/internal/ui/styles"
)

// MaxInputLength caps a single question.
const MaxInputLength = 4000

// Screen identifies the visible screen.
type Screen int

const (
	ScreenSplash Screen = iota
	ScreenChat
	ScreenSettings
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenSplash:
		return "splash"
	case ScreenChat:
		return "chat"
	case ScreenSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Deps are the services the chat model drives.
type Deps struct {
	Session *session.Manager
	Themes  *theme.Store
	Config  *config.Config
	Logger  *zap.Logger
	Version string

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole TUI: splash, chat and
// settings. History, bridge and theme state arrive as messages (see
// Subscribe); user intent goes to the session manager and theme store.
type Model struct {
	ctx     context.Context
	session *session.Manager
	themes  *theme.Store
	cfg     *config.Config
	logger  *zap.Logger
	version string
	copy    func(string) error

	// Components
	keys     KeyMap
	help     help.Model
	theme    *styles.Theme
	markdown *components.Markdown
	list     *components.MessageList
	splash   components.Splash
	welcome  components.Welcome
	settings components.Settings
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// State
	screen     Screen
	messages   []model.ChatMessage
	bridge     api.State
	preference theme.Preference
	effective  theme.Effective
	spinning   bool
	showHelp   bool
	status     string
	statusErr  bool

	width  int
	height int
	ready  bool
}

// New creates the model. ctx bounds requests made from the UI.
func New(ctx context.Context, deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	logger = logging.OrNop(logger)
	copyFn := deps.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	th := styles.NewTheme()
	md := components.NewMarkdown(th, cfg.UI.Markdown)
	list := components.NewMessageList(th, md)
	list.SetShowTimestamp(cfg.UI.ShowTimestamps)

	input := textinput.New()
	input.Placeholder = "Ask NovaGem anything..."
	input.CharLimit = MaxInputLength
	input.Prompt = "> "
	input.PromptStyle = th.InputPrompt
	input.PlaceholderStyle = th.InputPlaceholder

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = th.Spinner

	splash := components.NewSplash(th, cfg.SplashDuration())
	splash.SetVersion(version)

	pref := deps.Themes.Current()
	eff := deps.Themes.Effective()
	list.SetDark(eff.IsDark())

	m := Model{
		ctx:        ctx,
		session:    deps.Session,
		themes:     deps.Themes,
		cfg:        cfg,
		logger:     logger.Named("tui"),
		version:    version,
		copy:       copyFn,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      th,
		markdown:   md,
		list:       list,
		splash:     splash,
		welcome:    components.NewWelcome(th),
		settings:   components.NewSettings(th, pref, eff),
		viewport:   viewport.New(80, 20),
		input:      input,
		spinner:    sp,
		screen:     ScreenSplash,
		messages:   deps.Session.Bus().Snapshot(),
		bridge:     deps.Session.Bridge().State().Get(),
		preference: pref,
		effective:  eff,
	}
	return m
}

// Subscribe routes the observable state into the program through p. The
// returned function detaches every subscription.
func (m Model) Subscribe(p *Pump) (unsubscribe func()) {
	unsubs := []func(){
		m.session.Bus().Subscribe(func(msgs []model.ChatMessage) {
			p.Post(MessagesChangedMsg{Messages: msgs})
		}),
		m.session.Bridge().State().Subscribe(func(s api.State) {
			p.Post(BridgeStateMsg{State: s})
		}),
		m.themes.Preference().Subscribe(func(pref theme.Preference) {
			p.Post(PreferenceChangedMsg{Preference: pref})
		}),
		m.themes.EffectiveChanges().Subscribe(func(e theme.Effective) {
			p.Post(EffectiveChangedMsg{Effective: e})
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Init starts the splash timer and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.splash.Init(), textinput.Blink)
}

// Screen returns the visible screen.
func (m Model) Screen() Screen { return m.screen }

// Messages returns the history the model last received.
func (m Model) Messages() []model.ChatMessage { return m.messages }

// Status returns the status bar text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// InputValue returns the current input text.
func (m Model) InputValue() string { return m.input.Value() }
