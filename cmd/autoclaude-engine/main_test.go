package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/client"
)

func init() {
	color.NoColor = true
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{client.ModelEnv, client.ProviderEnv, client.MaxTurnsEnv, client.SessionDBEnv, logLevelEnv, "AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE", "AUTO_CLAUDE_CUSTOM_CLI_WORKDIR"} {
		t.Setenv(key, "")
	}
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-provider", "gemini", "-tools", "Read, Glob,,", "-max-turns", "3", "-agui", "hello", "world"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", o.provider)
	assert.Equal(t, "hello world", o.prompt)
	assert.Equal(t, 3, o.maxTurns)
	assert.True(t, o.agui)
	assert.Equal(t, []string{"Read", "Glob"}, splitList(o.tools))

	_, err = parseFlags([]string{"-nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	clearEnv(t)

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv(client.ModelEnv, "gpt-4o")
		t.Setenv(client.MaxTurnsEnv, "9")
		cfg, err := options{model: "gemini-2.5-flash", tools: "Read", maxTurns: 2, system: "sys"}.config()
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-flash", cfg.Model)
		assert.Equal(t, 2, cfg.MaxTurns)
		assert.Equal(t, []string{"Read"}, cfg.AllowedTools)
		assert.Equal(t, "sys", cfg.SystemPrompt)
	})

	t.Run("cli provider keeps its own default model", func(t *testing.T) {
		cfg, err := options{provider: "cli"}.config()
		require.NoError(t, err)
		assert.Empty(t, cfg.Model)
		assert.Equal(t, ai.Provider("cli"), cfg.Provider)
	})

	t.Run("mcp config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mcp.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"docs":{"command":"docs-server","args":["--stdio"]}}}`), 0o644))
		cfg, err := options{mcpConfig: path}.config()
		require.NoError(t, err)
		require.Contains(t, cfg.MCPServers, "docs")
		assert.Equal(t, []string{"--stdio"}, cfg.MCPServers["docs"].Args)
	})

	t.Run("bad mcp config", func(t *testing.T) {
		_, err := options{mcpConfig: filepath.Join(t.TempDir(), "missing.json")}.config()
		assert.Error(t, err)
	})
}

func TestReadPrompt(t *testing.T) {
	p, err := readPrompt(options{}, strings.NewReader("  from stdin \n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", p)

	p, err = readPrompt(options{prompt: "flag"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "flag", p)

	_, err = readPrompt(options{}, strings.NewReader(" "))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.render(ai.TextDelta("Looking"))
	r.render(ai.ToolUse(ai.ToolCall{ID: "1", Name: "Glob", Arguments: map[string]any{"pattern": "*.go"}}))
	r.render(ai.ToolOutcome(ai.ToolResult{ToolCallID: "1", Content: "a.go\nb.go\n"}))
	r.render(ai.TextDelta("Done."))
	r.finish()

	assert.Equal(t, "Looking\n● Glob({\"pattern\":\"*.go\"})\n  ⎿ a.go\n  ⎿ b.go\nDone.\n", buf.String())
}

func TestClip(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, clip("a\nb\n", 3))
	assert.Equal(t, []string{"a", "b", "… 2 more lines"}, clip("a\nb\nc\nd", 2))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("info", true))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN", false))
	assert.Equal(t, slog.LevelError, parseLevel("error", false))
	assert.Equal(t, slog.LevelInfo, parseLevel("", false))
}

func cliScript(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	t.Setenv(client.ProviderEnv, "cli")
	t.Setenv("AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE", "sh "+path)
}

func TestRunCLI(t *testing.T) {
	clearEnv(t)
	cliScript(t, `echo "got: $1"`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-cwd", t.TempDir(), "-prompt", "ping"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "> [Custom CLI] Executing: sh ")
	assert.Contains(t, stdout.String(), "got: ping")
}

func TestRunAGUI(t *testing.T) {
	clearEnv(t)
	cliScript(t, `echo hello`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-cwd", t.TempDir(), "-agui"}, strings.NewReader("ping"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "event: RUN_STARTED\n"))
	assert.Contains(t, out, "event: TEXT_MESSAGE_CONTENT\n")
	assert.Contains(t, out, "hello")
	assert.True(t, strings.HasSuffix(out, "\n\n"))
	assert.Contains(t, out, "event: RUN_FINISHED\n")
}

func TestRunErrors(t *testing.T) {
	clearEnv(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"-provider", "cli"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 2, run(context.Background(), []string{"-bogus"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 1, run(context.Background(), []string{"-provider", "nope", "-prompt", "hi"}, strings.NewReader(""), &stdout, &stderr))
}
