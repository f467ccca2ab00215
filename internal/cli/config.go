// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/novagem/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(flags *globalFlags) *cobra.Command {
	skip := map[string]string{skipAppAnnotation: "true"}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
		Long: `Show or edit the configuration.

Keys use dot notation, for example api.endpoint or ui.splash_ms. Environment
overrides (NOVAGEM_*) apply to show and get but are never written by set.`,
	}

	show := &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration (secrets redacted)",
		Args:        cobra.NoArgs,
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range config.GetAllKeys() {
				fmt.Fprintf(out, "%s%s\n", RenderLabel(key), RenderConditional(ValueStyle, configValue(cfg, key)))
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:         "get <key>",
		Short:       "Print one configuration value",
		Args:        cobra.ExactArgs(1),
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if _, err := cfg.Get(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), configValue(cfg, args[0]))
			return nil
		},
	}

	set := &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Set a value and save the config file",
		Args:        cobra.ExactArgs(2),
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(flags)
			if err != nil {
				return err
			}
			cfg, err := readConfigFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if strings.EqualFold(filepath.Ext(path), ".json") {
				err = config.SaveJSON(cfg, path)
			} else {
				err = config.SaveTOML(cfg, path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderConditional(SuccessStyle, fmt.Sprintf("Set %s in %s", args[0], path)))
			return nil
		},
	}

	path := &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Args:        cobra.NoArgs,
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configFilePath(flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, get, set, path)
	return cmd
}

// configValue formats a key's value, redacting secrets.
func configValue(cfg *config.Config, key string) string {
	v, err := cfg.Get(key)
	if err != nil {
		return ""
	}
	s := fmt.Sprint(v)
	if config.IsSecretKey(key) && s != "" {
		return "[REDACTED]"
	}
	return s
}

// configFilePath returns --config or the default active config file.
func configFilePath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.ActivePath()
}

// readConfigFile decodes path over the defaults without environment
// overrides, so set never persists NOVAGEM_* values. A missing file yields
// the defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
