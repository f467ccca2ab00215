// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/chatstate"
	"github.com/jeranaias/novagem/internal/config"
	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/session"
	"github.com/jeranaias/novagem/internal/storage"
	"github.com/jeranaias/novagem/internal/theme"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// App holds the services shared by every command.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	KV      storage.KV
	Bus     *chatstate.Bus
	Bridge  *api.Bridge
	Session *session.Manager
	Themes  *theme.Store

	// HTTP is set when the HTTP transport is in use so a config reload can
	// re-point it.
	HTTP *api.HTTPTransport

	// EndpointOverride is the --endpoint flag. It wins over every reload.
	EndpointOverride string
}

// loadConfig loads the config from flags.configPath or the default
// location, then applies flag overrides. A broken config file is reported
// on stderr and defaults are used.
func loadConfig(flags *globalFlags) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if flags.configPath != "" {
		path = flags.configPath
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, "", err
		}
	} else {
		path, _ = config.ActivePath()
		cfg, err = config.Load()
		if cfg == nil {
			return nil, "", err
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, RenderConditional(WarningStyle, "Warning: "+err.Error()+" (using defaults)"))
		}
	}

	if err := applyEndpointOverride(cfg, flags.endpoint); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// applyEndpointOverride points cfg at endpoint over HTTP. An empty endpoint
// leaves cfg alone.
func applyEndpointOverride(cfg *config.Config, endpoint string) error {
	if endpoint == "" {
		return nil
	}
	cfg.API.Endpoint = endpoint
	cfg.API.Transport = string(api.KindHTTP)
	return cfg.Validate()
}

// openApp wires config, logging, storage and the chat services.
func openApp(ctx context.Context, flags *globalFlags) (*App, error) {
	cfg, path, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log, flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("transport", cfg.API.Transport),
		zap.String("storage", cfg.Storage.Backend))

	backend, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	kv := storage.OpenOrMemory(backend, cfg.DataPath(), logger)

	transport, httpTransport, err := newTransport(ctx, cfg, logger)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	bus := chatstate.New(storage.NewHistoryStore(kv, logger), logger)
	bridge := api.NewBridge(transport, logger)

	return &App{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		KV:         kv,
		Bus:        bus,
		Bridge:     bridge,
		Session:    session.NewManager(bus, bridge, logger),
		Themes:     theme.NewStore(kv, theme.NewTerminalEnvironment(os.Stdout), logger),
		HTTP:       httpTransport,

		EndpointOverride: flags.endpoint,
	}, nil
}

// newTransport builds the transport selected by cfg.API.Transport.
func newTransport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (api.Transport, *api.HTTPTransport, error) {
	kind, err := api.ParseKind(cfg.API.Transport)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case api.KindGemini:
		t, err := api.NewGeminiTransport(ctx, cfg.API.GeminiAPIKey, cfg.API.GeminiModel, cfg.Timeout(), logger)
		if err != nil {
			return nil, nil, err
		}
		return t, nil, nil
	default:
		t := api.NewHTTPTransport(cfg.API.Endpoint,
			api.WithTimeout(cfg.Timeout()),
			api.WithMaxResponseBytes(cfg.API.MaxResponseBytes),
			api.WithLogger(logger),
		)
		return t, t, nil
	}
}

// ApplyConfig re-points the running transport after a config reload. Only
// the HTTP endpoint can change without a restart. The --endpoint flag is
// re-applied to cfg first, so callers see the endpoint actually in use.
func (a *App) ApplyConfig(cfg *config.Config) {
	if err := applyEndpointOverride(cfg, a.EndpointOverride); err != nil {
		a.Logger.Warn("endpoint override rejected", zap.Error(err))
	}
	if a.HTTP != nil && cfg.API.Transport == string(api.KindHTTP) && cfg.API.Endpoint != a.HTTP.Endpoint() {
		a.Logger.Info("endpoint changed", zap.String("endpoint", cfg.API.Endpoint))
		a.HTTP.SetEndpoint(cfg.API.Endpoint)
	}
	a.Config = cfg
}

// Close cancels any pending request and releases storage.
func (a *App) Close() error {
	err := a.Session.Close()
	if cerr := a.KV.Close(); err == nil {
		err = cerr
	}
	_ = a.Logger.Sync()
	return err
}
