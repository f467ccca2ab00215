// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points ConfigDir at a fresh temp dir and clears the env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("NOVAGEM_HOME", dir)
	for _, k := range []string{
		"NOVAGEM_ENDPOINT", "NOVAGEM_TRANSPORT", "NOVAGEM_GEMINI_API_KEY",
		"GEMINI_API_KEY", "NOVAGEM_STORAGE", "NOVAGEM_DATA_DIR", "NOVAGEM_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.API.Endpoint != "http://localhost:5000/api/ask" {
		t.Errorf("endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.API.Transport != "http" {
		t.Errorf("transport = %q, want http", cfg.API.Transport)
	}
	if cfg.API.TimeoutSecs != 0 || cfg.Timeout() != 0 {
		t.Errorf("default timeout should be none, got %d", cfg.API.TimeoutSecs)
	}
	if cfg.UI.SplashMs != 2500 || cfg.SplashDuration() != 2500*time.Millisecond {
		t.Errorf("splash = %d", cfg.UI.SplashMs)
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should default to on")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("backend = %q, want file", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, "", false},
		{"gemini transport", func(c *Config) { c.API.Transport = "gemini" }, "", false},
		{"bad transport", func(c *Config) { c.API.Transport = "carrier-pigeon" }, "api.transport", true},
		{"empty endpoint", func(c *Config) { c.API.Endpoint = "" }, "api.endpoint", true},
		{"ftp endpoint", func(c *Config) { c.API.Endpoint = "ftp://host/ask" }, "api.endpoint", true},
		{"endpoint without host", func(c *Config) { c.API.Endpoint = "http:///ask" }, "api.endpoint", true},
		{"https endpoint", func(c *Config) { c.API.Endpoint = "https://api.example.com/ask" }, "", false},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs", true},
		{"negative max bytes", func(c *Config) { c.API.MaxResponseBytes = -5 }, "api.max_response_bytes", true},
		{"sqlite backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "", false},
		{"bad backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend", true},
		{"splash too long", func(c *Config) { c.UI.SplashMs = MaxSplashMs + 1 }, "ui.splash_ms", true},
		{"no splash", func(c *Config) { c.UI.SplashMs = 0 }, "", false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error type = %T, want ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "one"},
		{Field: "b", Message: "two"},
	}
	if got := errs.Error(); got != "a: one; b: two" {
		t.Errorf("Error() = %q", got)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
}

func TestSetDefaults_Normalizes(t *testing.T) {
	cfg := Default()
	cfg.API.Transport = " HTTP "
	cfg.Storage.Backend = "SQLite"
	cfg.Log.Level = "DEBUG"
	cfg.API.MaxResponseBytes = 0

	cfg.SetDefaults()

	if cfg.API.Transport != "http" || cfg.Storage.Backend != "sqlite" || cfg.Log.Level != "debug" {
		t.Errorf("not normalized: %q %q %q", cfg.API.Transport, cfg.Storage.Backend, cfg.Log.Level)
	}
	if cfg.API.MaxResponseBytes != DefaultMaxResponseBytes {
		t.Errorf("max bytes = %d", cfg.API.MaxResponseBytes)
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q", cfg.API.Endpoint)
	}
}

func TestLoad_TOMLPartialKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	content := `
[api]
endpoint = "https://novagem.example.com/api/ask"

[ui]
splash_ms = 500
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Endpoint != "https://novagem.example.com/api/ask" {
		t.Errorf("endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.UI.SplashMs != 500 {
		t.Errorf("splash = %d", cfg.UI.SplashMs)
	}
	if !cfg.UI.Markdown {
		t.Error("markdown default lost")
	}
	if cfg.API.Transport != "http" {
		t.Errorf("transport = %q", cfg.API.Transport)
	}

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	content := `{"storage": {"backend": "memory"}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("backend = %q, want memory", cfg.Storage.Backend)
	}
	if path, _ := ActivePath(); filepath.Base(path) != "config.json" {
		t.Errorf("ActivePath = %q", path)
	}
}

func TestLoad_CorruptFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api\nendpoint="), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if cfg == nil || cfg.API.Endpoint != DefaultEndpoint {
		t.Errorf("expected defaults alongside the error, got %+v", cfg)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	isolate(t)
	if err := os.WriteFile(path, []byte("[api]\ntransport = \"smoke\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "api.transport") {
		t.Errorf("LoadFromPath() error = %v", err)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.Endpoint = "https://example.com/ask"
	cfg.API.TimeoutSecs = 30
	cfg.UI.ShowTimestamps = true
	cfg.UI.Markdown = false

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# novagem configuration file") {
		t.Error("missing header comment")
	}
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Storage.Backend = "sqlite"
	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q", loaded.Storage.Backend)
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("NOVAGEM_ENDPOINT", "http://10.0.0.2:8080/ask")
	t.Setenv("NOVAGEM_TRANSPORT", "gemini")
	t.Setenv("GEMINI_API_KEY", "generic")
	t.Setenv("NOVAGEM_GEMINI_API_KEY", "specific")
	t.Setenv("NOVAGEM_STORAGE", "sqlite")
	t.Setenv("NOVAGEM_DATA_DIR", "/tmp/novagem-data")
	t.Setenv("NOVAGEM_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.Endpoint != "http://10.0.0.2:8080/ask" {
		t.Errorf("endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.API.Transport != "gemini" {
		t.Errorf("transport = %q", cfg.API.Transport)
	}
	if cfg.API.GeminiAPIKey != "specific" {
		t.Errorf("api key = %q, want the NOVAGEM_ value", cfg.API.GeminiAPIKey)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.DataDir != "/tmp/novagem-data" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
}

func TestApplyEnvOverrides_GenericGeminiKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "generic")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.API.GeminiAPIKey != "generic" {
		t.Errorf("api key = %q", cfg.API.GeminiAPIKey)
	}
}

// =============================================================================
// GET / SET / STRING
// =============================================================================

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("api.endpoint")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != DefaultEndpoint {
		t.Errorf("Get(api.endpoint) = %v", val)
	}

	if err := cfg.Set("ui.splash_ms", "1200"); err != nil {
		t.Fatalf("Set(int) error = %v", err)
	}
	if cfg.UI.SplashMs != 1200 {
		t.Errorf("splash = %d", cfg.UI.SplashMs)
	}

	if err := cfg.Set("ui.show_timestamps", "yes"); err != nil {
		t.Fatalf("Set(bool) error = %v", err)
	}
	if !cfg.UI.ShowTimestamps {
		t.Error("show_timestamps not set")
	}

	if err := cfg.Set("api.gemini_api_key", "k"); err != nil {
		t.Fatalf("Set(gemini_api_key) error = %v", err)
	}
	if cfg.API.GeminiAPIKey != "k" {
		t.Errorf("gemini key = %q", cfg.API.GeminiAPIKey)
	}

	if err := cfg.Set("api.max_response_bytes", 2048); err != nil {
		t.Fatalf("Set(int64 from int) error = %v", err)
	}
	if cfg.API.MaxResponseBytes != 2048 {
		t.Errorf("max bytes = %d", cfg.API.MaxResponseBytes)
	}

	errCases := []struct {
		key   string
		value interface{}
	}{
		{"invalid.key", "x"},
		{"api", "x"},
		{"", "x"},
		{"ui.splash_ms", "soon"},
		{"ui.markdown", "maybe"},
		{"api.endpoint", 42},
	}
	for _, tc := range errCases {
		if err := cfg.Set(tc.key, tc.value); err == nil {
			t.Errorf("Set(%q, %v) should fail", tc.key, tc.value)
		}
	}
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.GeminiAPIKey = "super-secret"

	s := cfg.String()
	if strings.Contains(s, "super-secret") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
	if cfg.API.GeminiAPIKey != "super-secret" {
		t.Error("String() must not modify the original")
	}
	if !IsSecretKey("api.gemini_api_key") || IsSecretKey("api.endpoint") {
		t.Error("IsSecretKey misclassified")
	}
}

func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.API.Endpoint = "http://changed/ask"

	if original.API.Endpoint != DefaultEndpoint {
		t.Error("Clone should create an independent copy")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/.novagem"); got != filepath.Join(home, ".novagem") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q", got)
	}
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 20*time.Millisecond, func(c *Config) { changes <- c }, nil)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	updated := Default()
	updated.API.Endpoint = "http://reloaded.test/ask"
	if err := SaveTOML(updated, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.API.Endpoint != "http://reloaded.test/ask" {
			t.Errorf("reloaded endpoint = %q", cfg.API.Endpoint)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestWatch_ReportsInvalidConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 4)
	go func() {
		_ = watch(ctx, path, 20*time.Millisecond, func(*Config) {}, func(err error) { errs <- err })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"tape\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "storage.backend") {
			t.Errorf("error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}
