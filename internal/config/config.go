// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/novagem/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete novagem configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API holds the answer endpoint and transport selection.
	API APIConfig `toml:"api" json:"api"`

	// Storage selects where history and the theme preference live.
	Storage StorageConfig `toml:"storage" json:"storage"`

	UI  UIConfig  `toml:"ui" json:"ui"`
	Log LogConfig `toml:"log" json:"log"`
}

// APIConfig configures how questions are answered.
type APIConfig struct {
	// Endpoint is the URL questions are POSTed to by the http transport.
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Transport is "http" (default) or "gemini".
	Transport string `toml:"transport" json:"transport"`
	// TimeoutSecs bounds a single request. Zero means no timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxResponseBytes caps the response body the http transport will read.
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`
	// GeminiAPIKey is used by the gemini transport.
	GeminiAPIKey string `toml:"gemini_api_key" json:"gemini_api_key"`
	// GeminiModel is the model name for the gemini transport.
	GeminiModel string `toml:"gemini_model" json:"gemini_model"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// Backend is "file" (default), "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`
	// DataDir holds the store files. A leading ~ is expanded.
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// SplashMs is how long the splash screen is shown, in milliseconds.
	SplashMs int `toml:"splash_ms" json:"splash_ms"`
	// Markdown renders AI answers with glamour when true.
	Markdown bool `toml:"markdown" json:"markdown"`
	// ShowTimestamps prints the time under each message.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `toml:"level" json:"level"`
	// File is the log destination. Empty disables logging.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultEndpoint matches the local development backend.
	DefaultEndpoint = "http://localhost:5000/api/ask"

	// DefaultMaxResponseBytes limits answers to 10MB.
	DefaultMaxResponseBytes int64 = 10 * 1024 * 1024

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultSplashMs    = 2500
	DefaultLogLevel    = "info"

	// MaxSplashMs keeps a misconfigured splash from hiding the app.
	MaxSplashMs = 10000
)

// Transports and backends accepted by Validate.
var (
	validTransports = map[string]bool{"http": true, "gemini": true}
	validBackends   = map[string]bool{"file": true, "sqlite": true, "memory": true}
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			Endpoint:         DefaultEndpoint,
			Transport:        "http",
			TimeoutSecs:      0,
			MaxResponseBytes: DefaultMaxResponseBytes,
			GeminiModel:      DefaultGeminiModel,
		},
		Storage: StorageConfig{
			Backend: "file",
			DataDir: "~/.novagem",
		},
		UI: UIConfig{
			SplashMs:       DefaultSplashMs,
			Markdown:       true,
			ShowTimestamps: false,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
			File:  "~/.novagem/novagem.log",
		},
	}
}

// Timeout returns the request timeout as a duration. Zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// SplashDuration returns how long the splash screen is shown.
func (c *Config) SplashDuration() time.Duration {
	return time.Duration(c.UI.SplashMs) * time.Millisecond
}

// DataPath returns the storage directory with ~ expanded.
func (c *Config) DataPath() string {
	return ExpandHome(c.Storage.DataDir)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the path to the novagem config directory.
// NOVAGEM_HOME overrides the default ~/.novagem.
func ConfigDir() (string, error) {
	if dir := os.Getenv("NOVAGEM_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".novagem"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read, preferring TOML.
// When neither exists it returns the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, util.DefaultDirPerm)
}

// ensureSecurePermissions tightens a config file to 0600. The file may hold
// an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// When a file exists but cannot be decoded, Load returns the defaults along
// with the decode error so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		if loadErr == nil {
			loadErr = err
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills string fields a file explicitly blanked.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = defaults.API.Endpoint
	}
	if cfg.API.Transport == "" {
		cfg.API.Transport = defaults.API.Transport
	}
	if cfg.API.GeminiModel == "" {
		cfg.API.GeminiModel = defaults.API.GeminiModel
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaults.Storage.DataDir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# novagem configuration file")
	fmt.Fprintln(&buf, "# Generated by novagem - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// API
	transport := strings.ToLower(c.API.Transport)
	if !validTransports[transport] {
		errs = append(errs, ValidationError{
			Field:   "api.transport",
			Message: fmt.Sprintf("invalid transport '%s', must be one of: http, gemini", c.API.Transport),
		})
	}
	if transport == "http" || c.API.Endpoint != "" {
		if err := validateEndpoint(c.API.Endpoint); err != nil {
			errs = append(errs, ValidationError{Field: "api.endpoint", Message: err.Error()})
		}
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: "must be zero (no timeout) or positive",
		})
	}
	if c.API.MaxResponseBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.max_response_bytes",
			Message: "must be zero (default limit) or positive",
		})
	}

	// Storage
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	// UI
	if c.UI.SplashMs < 0 || c.UI.SplashMs > MaxSplashMs {
		errs = append(errs, ValidationError{
			Field:   "ui.splash_ms",
			Message: fmt.Sprintf("must be between 0 and %d", MaxSplashMs),
		})
	}

	// Log
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("endpoint is required for the http transport")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// SetDefaults normalizes case and fills zero values that have a default.
func (c *Config) SetDefaults() {
	c.API.Transport = strings.ToLower(strings.TrimSpace(c.API.Transport))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.API.MaxResponseBytes == 0 {
		c.API.MaxResponseBytes = DefaultMaxResponseBytes
	}
	_ = fillDefaults(c)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - NOVAGEM_ENDPOINT: overrides api.endpoint
//   - NOVAGEM_TRANSPORT: overrides api.transport
//   - NOVAGEM_GEMINI_API_KEY (or GEMINI_API_KEY): overrides api.gemini_api_key
//   - NOVAGEM_STORAGE: overrides storage.backend
//   - NOVAGEM_DATA_DIR: overrides storage.data_dir
//   - NOVAGEM_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("NOVAGEM_ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if transport := os.Getenv("NOVAGEM_TRANSPORT"); transport != "" {
		c.API.Transport = transport
	}

	// The project-specific key wins over the generic one.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.API.GeminiAPIKey = key
	}
	if key := os.Getenv("NOVAGEM_GEMINI_API_KEY"); key != "" {
		c.API.GeminiAPIKey = key
	}

	if backend := os.Getenv("NOVAGEM_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if dir := os.Getenv("NOVAGEM_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if level := os.Getenv("NOVAGEM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.endpoint").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.splash_ms").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. Matching is case-insensitive, so "gemini_api_key" finds
// GeminiAPIKey.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := parseBool(strVal)
			if err != nil {
				return err
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %q", s)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.endpoint",
		"api.transport",
		"api.timeout_secs",
		"api.max_response_bytes",
		"api.gemini_api_key",
		"api.gemini_model",
		"storage.backend",
		"storage.data_dir",
		"ui.splash_ms",
		"ui.markdown",
		"ui.show_timestamps",
		"log.level",
		"log.file",
	}
}

// IsSecretKey reports whether a key holds a credential that must be redacted.
func IsSecretKey(key string) bool {
	return strings.EqualFold(key, "api.gemini_api_key")
}

// Clone creates a copy of the configuration. Config holds no maps or slices,
// so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON rendering of the config with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.GeminiAPIKey != "" {
		safe.API.GeminiAPIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
