package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/store"
)

// script writes a shell script and returns a template that runs it.
func script(t *testing.T, body, flags string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	tmpl := "sh " + path
	if flags != "" {
		tmpl += " " + flags
	}
	return tmpl
}

func newTestEngine(t *testing.T, cfg ai.EngineConfig, opts ...Option) *Engine {
	t.Helper()
	if cfg.Cwd == "" {
		cfg.Cwd = t.TempDir()
	}
	e, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func texts(envs []ai.Envelope) []string {
	out := make([]string, len(envs))
	for i, env := range envs {
		out[i] = env.Text
	}
	return out
}

func TestStreamingJSON(t *testing.T) {
	tmpl := script(t, `read line
echo '{"type":"system","session_id":"sess-new"}'
echo "$line"
echo ''
echo 'plain text line'
echo '[1,2]'
echo '{"type":"result","text":"done"}'`, "--output-format stream-json")

	sessions := store.NewMemoryStore()
	var saved []string
	cfg := ai.EngineConfig{
		Model:   "custom:test",
		SpecDir: "specs/001",
		Observer: func(ev event.Event) {
			if ev.Type == event.SessionSaved {
				saved = append(saved, ev.Message)
			}
		},
	}
	e := newTestEngine(t, cfg, WithTemplate(tmpl), WithSessionStore(sessions))

	envs, err := ai.Run(context.Background(), e, "hello")
	require.NoError(t, err)

	require.Len(t, envs, 5)
	assert.True(t, strings.HasPrefix(envs[0].Text, "> [Custom CLI] Executing: sh "))
	assert.Equal(t, []string{"hello", "plain text line", "[1,2]", "done"}, texts(envs[1:]))

	id, ok, err := sessions.Get(context.Background(), "specs/001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-new", id)
	assert.Equal(t, "sess-new", e.SessionID())
	assert.Equal(t, []string{"sess-new"}, saved)
}

func TestPositionalPrompt(t *testing.T) {
	tmpl := script(t, `echo "got: $1"`, "")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate(tmpl))

	envs, err := ai.Run(context.Background(), e, "do the thing")
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "got: do the thing", envs[1].Text)
}

func TestTextModeKeepsJSONVerbatim(t *testing.T) {
	tmpl := script(t, `echo '{"content":"x"}'`, "")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate(tmpl))

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	assert.Equal(t, `{"content":"x"}`, envs[len(envs)-1].Text)
}

func TestResumesStoredSession(t *testing.T) {
	sessions := store.NewMemoryStore()
	require.NoError(t, sessions.Put(context.Background(), "specs/001", "sess-42"))

	tmpl := script(t, `echo "$@"`, "")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test", SpecDir: "specs/001"},
		WithTemplate(tmpl), WithSessionStore(sessions))

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.True(t, strings.HasSuffix(envs[0].Text, " -s sess-42\n"))
	assert.Equal(t, "-s sess-42 hi", envs[1].Text)
}

func TestFileStoreMarkerResumed(t *testing.T) {
	specDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(specDir, store.MarkerFile), []byte("sess-7\n"), 0o644))

	tmpl := script(t, `echo "$@"`, "")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test", SpecDir: specDir}, WithTemplate(tmpl))
	assert.Equal(t, "sess-7", e.SessionID())

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	assert.Equal(t, "-s sess-7 hi", envs[len(envs)-1].Text)
}

func TestNonZeroExitSurfacesStderr(t *testing.T) {
	tmpl := script(t, `echo partial
echo "  boom  " >&2
exit 3`, "")
	var transportErrs int
	cfg := ai.EngineConfig{Model: "custom:test", Observer: func(ev event.Event) {
		if ev.Type == event.TransportError {
			transportErrs++
		}
	}}
	e := newTestEngine(t, cfg, WithTemplate(tmpl))

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, "partial", envs[1].Text)
	assert.Equal(t, "\n[CLI Error]: boom", envs[2].Text)
	assert.Equal(t, 1, transportErrs)
}

func TestSpawnFailure(t *testing.T) {
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate("definitely-not-a-real-binary-xyz --model {model}"))

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.True(t, strings.HasPrefix(envs[1].Text, "Error running custom CLI: "))
}

func TestWorkdirOverride(t *testing.T) {
	dir := t.TempDir()
	tmpl := script(t, `pwd`, "")
	cfg := ai.EngineConfig{
		Model: "custom:test",
		Env: map[string]string{
			"AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE": tmpl,
			"AUTO_CLAUDE_CUSTOM_CLI_WORKDIR":  dir,
		},
	}
	e := newTestEngine(t, cfg)

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(envs[len(envs)-1].Text)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEarlyBreakKillsProcess(t *testing.T) {
	tmpl := script(t, `echo first
sleep 30
echo second`, "")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate(tmpl))

	start := time.Now()
	require.NoError(t, e.Submit(context.Background(), "hi"))
	var got []string
	for env := range e.Stream(context.Background()) {
		got = append(got, env.Text)
		if env.Text == "first" {
			break
		}
	}
	assert.Equal(t, "first", got[len(got)-1])
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestStreamWithoutSubmit(t *testing.T) {
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate(script(t, "echo x", "")))

	var n int
	for range e.Stream(context.Background()) {
		n++
	}
	assert.Zero(t, n)

	_, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	for range e.Stream(context.Background()) {
		n++
	}
	assert.Zero(t, n, "a turn is not replayed")
}

func TestDefaultsAndClose(t *testing.T) {
	t.Setenv("AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE", "")
	e := newTestEngine(t, ai.EngineConfig{})
	assert.Equal(t, DefaultTemplate, e.template)
	assert.Equal(t, DefaultModel, e.model)

	require.NoError(t, e.SetSystemPrompt("ignored"))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Submit(context.Background(), "hi"), ai.ErrClosed)
	assert.ErrorIs(t, e.SetSystemPrompt("x"), ai.ErrClosed)
}

func TestInvalidTemplate(t *testing.T) {
	_, err := New(context.Background(), ai.EngineConfig{Model: "custom:test"}, WithTemplate(`agent "open`))
	require.Error(t, err)
	assert.True(t, ai.IsConfigError(err))
}

func TestOverlongLineEndsTurn(t *testing.T) {
	tmpl := script(t, `head -c 17000000 /dev/zero | tr '\0' a
echo
echo after`, "")
	var transportErrs int
	cfg := ai.EngineConfig{Model: "custom:test", Observer: func(ev event.Event) {
		if ev.Type == event.TransportError {
			transportErrs++
		}
	}}
	e := newTestEngine(t, cfg, WithTemplate(tmpl))

	type result struct {
		envs []ai.Envelope
		err  error
	}
	done := make(chan result, 1)
	go func() {
		envs, err := ai.Run(context.Background(), e, "hi")
		done <- result{envs, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		last := r.envs[len(r.envs)-1].Text
		assert.True(t, strings.HasPrefix(last, "\nError reading custom CLI output: "), last)
		assert.Contains(t, last, "token too long")
		assert.NotContains(t, texts(r.envs), "after")
		assert.Equal(t, 1, transportErrs)
	case <-time.After(15 * time.Second):
		t.Fatal("stream did not end after an overlong line")
	}
}

func TestStructuredContentRendered(t *testing.T) {
	tmpl := script(t, `echo '{"content":{"a":1}}'
echo '{"message":["x","y"]}'
echo '{"content":{},"text":"fallback"}'
echo '{"content":false,"text":""}'
echo '{"text":42}'`, "--output-format stream-json")
	e := newTestEngine(t, ai.EngineConfig{Model: "custom:test"}, WithTemplate(tmpl))

	envs, err := ai.Run(context.Background(), e, "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `["x","y"]`, "fallback", "42"}, texts(envs[1:]))
}
