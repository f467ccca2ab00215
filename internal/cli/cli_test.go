// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/novagem/internal/config"
)

func TestMain(m *testing.M) {
	os.Setenv("NO_COLOR", "1")
	colorsOnce = sync.Once{}
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// =============================================================================
// HARNESS
// =============================================================================

// backend is a fake answer server. The answer is derived from the question
// unless a fixed body is set.
type backend struct {
	srv *httptest.Server

	mu    sync.Mutex
	asked []string
	body  string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		b.asked = append(b.asked, req.Question)
		body := b.body
		b.mu.Unlock()

		if body == "" {
			data, _ := json.Marshal(map[string]string{"answer": "answer to " + req.Question})
			body = string(data)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) setBody(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.body = body
}

func (b *backend) questions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.asked...)
}

type harness struct {
	dir        string
	configPath string
	backend    *backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"NOVAGEM_ENDPOINT", "NOVAGEM_TRANSPORT", "NOVAGEM_GEMINI_API_KEY", "GEMINI_API_KEY",
		"NOVAGEM_STORAGE", "NOVAGEM_DATA_DIR", "NOVAGEM_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("NOVAGEM_HOME", dir)

	b := newBackend(t)
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[api]
endpoint = %q

[storage]
backend = "file"
data_dir = %q

[ui]
splash_ms = 0
markdown = false

[log]
file = %q
`, b.srv.URL+"/api/ask", filepath.Join(dir, "data"), filepath.Join(dir, "novagem.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	return &harness{dir: dir, configPath: cfgPath, backend: b}
}

// run executes one novagem invocation and returns its output.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := h.run(t, "", args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAnswerAndRecordsHistory(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "ask", "What", "is", "2+2?")
	assert.Equal(t, "answer to What is 2+2?\n", out)
	assert.Equal(t, []string{"What is 2+2?"}, h.backend.questions())

	list := h.mustRun(t, "history", "list")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "You")
	assert.Contains(t, lines[0], "What is 2+2?")
	assert.Contains(t, lines[1], "NovaGem")
	assert.Contains(t, lines[1], "answer to What is 2+2?")
}

func TestAsk_ReadsQuestionFromStdin(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "  Explain TCP  \n", "ask")
	require.NoError(t, err)
	assert.Equal(t, "answer to Explain TCP\n", out)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "   \n", "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is empty")
	assert.Empty(t, h.backend.questions())
}

func TestAsk_ServerErrorExitsNonZero(t *testing.T) {
	h := newHarness(t)
	h.backend.setBody(`{"error":"model overloaded"}`)

	out, errOut, err := h.run(t, "", "ask", "hello")
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "model overloaded")

	// The failure stays in the history.
	list := h.mustRun(t, "history", "list")
	assert.Contains(t, list, "Error: ")
}

func TestAsk_JSONOutput(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "ask", "--json", "ping")
	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "ping", res.Question)
	assert.Equal(t, "answer to ping", res.Answer)
	assert.Empty(t, res.Error)
	assert.NotEmpty(t, res.Timestamp)
}

func TestAsk_EndpointFlagOverridesConfig(t *testing.T) {
	h := newHarness(t)
	other := newBackend(t)

	out := h.mustRun(t, "--endpoint", other.srv.URL+"/ask", "ask", "hi")
	assert.Equal(t, "answer to hi\n", out)
	assert.Empty(t, h.backend.questions())
	assert.Equal(t, []string{"hi"}, other.questions())
}

func TestApplyConfig_KeepsEndpointFlagAcrossReloads(t *testing.T) {
	h := newHarness(t)
	flagged := newBackend(t)
	fileEdit := newBackend(t)

	app, err := openApp(context.Background(), &globalFlags{
		configPath: h.configPath,
		endpoint:   flagged.srv.URL + "/ask",
	})
	require.NoError(t, err)
	defer app.Close()

	// An editor save points the file at another server.
	reloaded, err := config.LoadFromPath(h.configPath)
	require.NoError(t, err)
	reloaded.API.Endpoint = fileEdit.srv.URL + "/ask"
	reloaded.UI.ShowTimestamps = true
	app.ApplyConfig(reloaded)

	assert.Equal(t, flagged.srv.URL+"/ask", app.HTTP.Endpoint())
	assert.Equal(t, flagged.srv.URL+"/ask", app.Config.API.Endpoint)
	assert.True(t, app.Config.UI.ShowTimestamps)

	_, err = app.Session.Ask(context.Background(), "still here?")
	require.NoError(t, err)
	assert.Equal(t, []string{"still here?"}, flagged.questions())
	assert.Empty(t, fileEdit.questions())
}

func TestApplyConfig_FollowsFileWithoutFlag(t *testing.T) {
	h := newHarness(t)
	moved := newBackend(t)

	app, err := openApp(context.Background(), &globalFlags{configPath: h.configPath})
	require.NoError(t, err)
	defer app.Close()

	reloaded, err := config.LoadFromPath(h.configPath)
	require.NoError(t, err)
	reloaded.API.Endpoint = moved.srv.URL + "/ask"
	app.ApplyConfig(reloaded)

	assert.Equal(t, moved.srv.URL+"/ask", app.HTTP.Endpoint())
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_EmptyList(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun(t, "history", "list"), "No messages yet.")
}

func TestHistory_ListLimitAndShow(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "ask", "first")
	h.mustRun(t, "ask", "second")

	list := h.mustRun(t, "history", "list", "--limit", "1")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "4"))
	assert.Contains(t, lines[0], "answer to second")

	show := h.mustRun(t, "history", "show", "3")
	assert.Contains(t, show, "You")
	assert.Contains(t, show, "second")

	_, _, err := h.run(t, "", "history", "show", "9")
	assert.Error(t, err)
	_, _, err = h.run(t, "", "history", "show", "zero")
	assert.Error(t, err)
}

func TestHistory_ClearWithYes(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "ask", "something")

	out := h.mustRun(t, "history", "clear", "--yes")
	assert.Contains(t, out, "Chat history cleared.")
	assert.Contains(t, h.mustRun(t, "history", "list"), "No messages yet.")
}

func TestHistory_ExportToStdout(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "ask", "export me")

	out := h.mustRun(t, "history", "export", "--format", "json", "--stdout")
	var doc struct {
		Count    int `json:"count"`
		Messages []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "user", doc.Messages[0].Role)
	assert.Equal(t, "export me", doc.Messages[0].Text)
	assert.Equal(t, "answer to export me", doc.Messages[1].Text)
}

func TestHistory_ExportToFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "ask", "keep this")
	outDir := filepath.Join(h.dir, "exports")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	out := h.mustRun(t, "history", "export", "--format", "md", "--output", outDir)
	assert.Contains(t, out, "Exported to ")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".md", filepath.Ext(entries[0].Name()))

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "keep this")
}

func TestHistory_ExportEmptyFails(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "", "history", "export", "--stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages to export")
}

// =============================================================================
// THEME
// =============================================================================

func TestTheme_SetPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "theme")
	assert.Contains(t, out, "system")

	h.mustRun(t, "theme", "set", "dark")
	out = h.mustRun(t, "theme")
	assert.Regexp(t, `Preference\s+dark`, out)
	assert.Regexp(t, `Effective\s+dark`, out)

	out = h.mustRun(t, "theme", "toggle")
	assert.Regexp(t, `Preference\s+system`, out)
}

func TestTheme_RejectsUnknownPreference(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "", "theme", "set", "purple")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid theme preference")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_PathAndGet(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, h.configPath+"\n", h.mustRun(t, "config", "path"))
	assert.Equal(t, h.backend.srv.URL+"/api/ask\n", h.mustRun(t, "config", "get", "api.endpoint"))

	_, _, err := h.run(t, "", "config", "get", "api.nope")
	assert.Error(t, err)
}

func TestConfig_SetSavesFile(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "config", "set", "ui.splash_ms", "500")
	assert.Contains(t, out, "Set ui.splash_ms")
	assert.Equal(t, "500\n", h.mustRun(t, "config", "get", "ui.splash_ms"))

	// Other keys survive the rewrite.
	assert.Equal(t, h.backend.srv.URL+"/api/ask\n", h.mustRun(t, "config", "get", "api.endpoint"))

	_, _, err := h.run(t, "", "config", "set", "ui.splash_ms", "soon")
	assert.Error(t, err)
	_, _, err = h.run(t, "", "config", "set", "api.transport", "carrier-pigeon")
	assert.Error(t, err)
}

func TestConfig_SetDoesNotPersistEnvOverrides(t *testing.T) {
	h := newHarness(t)
	t.Setenv("NOVAGEM_LOG_LEVEL", "debug")

	h.mustRun(t, "config", "set", "ui.markdown", "true")

	data, err := os.ReadFile(h.configPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"debug"`)
}

func TestConfig_ShowRedactsSecrets(t *testing.T) {
	h := newHarness(t)
	t.Setenv("NOVAGEM_GEMINI_API_KEY", "super-secret-key")

	out := h.mustRun(t, "config", "show")
	assert.Contains(t, out, "api.endpoint")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "super-secret-key")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun(t, "version"), "novagem "+Version)
}

// =============================================================================
// CHAT REPL
// =============================================================================

// scriptedInput replays lines, then reports EOF.
type scriptedInput struct {
	lines   []string
	prompts int
}

func (s *scriptedInput) Prompt(string) (string, error) {
	s.prompts++
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestREPL(t *testing.T, h *harness, lines ...string) (*repl, *bytes.Buffer, *bytes.Buffer, *[]string) {
	t.Helper()
	app, err := openApp(context.Background(), &globalFlags{configPath: h.configPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	var stdout, stderr bytes.Buffer
	copied := &[]string{}
	record := func(s string) error {
		*copied = append(*copied, s)
		return nil
	}
	return &repl{
		app:  app,
		in:   &scriptedInput{lines: lines},
		out:  &stdout,
		err:  &stderr,
		copy: record,
	}, &stdout, &stderr, copied
}

func TestREPL_AsksAndRunsCommands(t *testing.T) {
	h := newHarness(t)
	r, stdout, stderr, copied := newTestREPL(t, h,
		"",
		"hello there",
		"/copy",
		"/history",
		"/theme light",
		"/theme",
		"/bogus",
		"/quit",
		"never read",
	)

	require.NoError(t, r.run(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "answer to hello there")
	assert.Contains(t, out, "Answer copied to clipboard.")
	assert.Contains(t, out, "Theme set to light.")
	assert.Contains(t, out, "Theme: light (effective light)")
	assert.Contains(t, stderr.String(), "unknown command /bogus")

	assert.Equal(t, []string{"answer to hello there"}, *copied)
	assert.Equal(t, []string{"hello there"}, h.backend.questions())
	assert.Equal(t, 8, r.in.(*scriptedInput).prompts)
}

func TestREPL_ClearAndEOF(t *testing.T) {
	h := newHarness(t)
	r, stdout, _, _ := newTestREPL(t, h, "question one", "/clear", "/history")

	require.NoError(t, r.run(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "Chat history cleared.")
	assert.Contains(t, out, "No messages yet.")
	assert.Empty(t, r.app.Bus.Snapshot())
}

func TestREPL_ServerErrorGoesToStderr(t *testing.T) {
	h := newHarness(t)
	h.backend.setBody(`{"error":"quota exceeded"}`)
	r, _, stderr, _ := newTestREPL(t, h, "anything", "/copy")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, stderr.String(), "quota exceeded")
	assert.Contains(t, stderr.String(), "no answer to copy yet")
}

func TestREPL_CopyCode(t *testing.T) {
	h := newHarness(t)
	h.backend.setBody(`{"answer":"Run:\n` + "```" + `sh\nmake test\n` + "```" + `"}`)
	r, stdout, _, copied := newTestREPL(t, h, "how do I test?", "/copycode")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, stdout.String(), "Code block copied to clipboard.")
	assert.Equal(t, []string{"make test"}, *copied)
}

func TestREPL_CopyCodeWithoutBlock(t *testing.T) {
	h := newHarness(t)
	r, _, stderr, copied := newTestREPL(t, h, "hello", "/copycode")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, stderr.String(), "no code block in the last answer")
	assert.Empty(t, *copied)
}

func TestREPL_Help(t *testing.T) {
	h := newHarness(t)
	r, stdout, _, _ := newTestREPL(t, h, "/help")

	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, stdout.String(), "/theme [pref]")
}
