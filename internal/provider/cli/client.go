package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/internal/turn"
	"github.com/Holovkat/Auto-Claude/store"
)

const (
	providerName = "cli"

	// waitDelay bounds how long Wait blocks on pipes after the process is
	// killed.
	waitDelay = 2 * time.Second
	// maxLine is the longest stdout line accepted from the program.
	maxLine = 16 << 20
)

// Engine spawns the configured program once per turn.
type Engine struct {
	template string
	model    string
	cwd      string
	specDir  string
	sessions store.SessionStore
	obs      event.Observer
	logger   *slog.Logger
	closers  []func() error

	mu        sync.Mutex
	sessionID string
	prompt    string
	pending   bool
	closed    bool
	machine   *turn.Machine

	closeOnce sync.Once
	closeErr  error
}

// Option configures the Engine.
type Option func(*Engine)

// WithSessionStore sets where session identifiers are kept. The default is a
// marker file inside the spec directory.
func WithSessionStore(s store.SessionStore) Option {
	return func(e *Engine) { e.sessions = s }
}

// WithTemplate overrides the command template from the environment.
func WithTemplate(t string) Option {
	return func(e *Engine) { e.template = t }
}

// WithCloser registers a resource released by Close.
func WithCloser(fn func() error) Option {
	return func(e *Engine) { e.closers = append(e.closers, fn) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a subprocess engine. The template comes from
// AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE, falling back to DefaultTemplate, and the
// working directory from AUTO_CLAUDE_CUSTOM_CLI_WORKDIR, falling back to
// cfg.Cwd. A stored session for cfg.SpecDir is loaded here.
func New(ctx context.Context, cfg ai.EngineConfig, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	e := &Engine{
		template: cfg.Getenv("AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE"),
		model:    cfg.Model,
		cwd:      cfg.Getenv("AUTO_CLAUDE_CUSTOM_CLI_WORKDIR"),
		specDir:  cfg.SpecDir,
		obs:      cfg.Observer,
		logger:   slog.Default(),
		machine:  turn.New(providerName, cfg.MaxTurns, cfg.Observer),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.template == "" {
		e.template = DefaultTemplate
	}
	if e.cwd == "" {
		e.cwd = cfg.Cwd
	}
	if e.sessions == nil {
		e.sessions = store.NewFileStore()
	}

	if _, err := BuildCommand(e.template, Vars{Model: e.model}); err != nil {
		return nil, &ai.ConfigError{Field: "AUTO_CLAUDE_CUSTOM_CLI_TEMPLATE", Reason: "invalid command template", Cause: err}
	}

	id, ok, err := e.sessions.Get(ctx, e.specDir)
	switch {
	case err != nil:
		e.logger.Warn("cli: load session", "spec_dir", e.specDir, "error", err)
	case ok:
		e.sessionID = id
		e.logger.Debug("cli: resuming session", "session_id", id)
	}
	return e, nil
}

// SessionID returns the session the next process will resume, if any.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Submit records the prompt for the next Stream. A second Submit before
// Stream replaces the first.
func (e *Engine) Submit(_ context.Context, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ai.ErrClosed
	}
	e.prompt = message
	e.pending = true
	return nil
}

// SetSystemPrompt is accepted and ignored; the external program owns its
// own instructions.
func (e *Engine) SetSystemPrompt(string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ai.ErrClosed
	}
	return nil
}

func (e *Engine) take() (prompt string, vars Vars, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.pending {
		return "", Vars{}, false
	}
	e.pending = false
	return e.prompt, Vars{
		Model:      e.model,
		ProjectDir: e.cwd,
		SpecDir:    e.specDir,
		SessionID:  e.sessionID,
	}, true
}

// Stream spawns the program and yields its output. Breaking out of the loop
// kills the process.
func (e *Engine) Stream(ctx context.Context) iter.Seq[ai.Envelope] {
	return func(yield func(ai.Envelope) bool) {
		prompt, vars, ok := e.take()
		if !ok {
			return
		}
		m := e.machine
		m.Begin()
		defer m.Finish()
		m.Request()

		cmd, err := BuildCommand(e.template, vars)
		if err != nil {
			e.fail(err)
			yield(ai.TextDelta(fmt.Sprintf("Error running custom CLI: %v", err)))
			return
		}
		if !yield(ai.TextDelta("> [Custom CLI] Executing: " + cmd.Display + "\n")) {
			return
		}
		e.run(ctx, cmd, prompt, yield)
	}
}

type stdinMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (e *Engine) run(ctx context.Context, cmd Command, prompt string, yield func(ai.Envelope) bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := cmd.Args
	if !cmd.Streaming {
		args = append(args, prompt)
	}
	proc := exec.CommandContext(ctx, args[0], args[1:]...)
	proc.Dir = e.cwd
	proc.WaitDelay = waitDelay
	var stderr bytes.Buffer
	proc.Stderr = &stderr

	spawnFailed := func(err error) {
		e.fail(err)
		yield(ai.TextDelta(fmt.Sprintf("Error running custom CLI: %v", err)))
	}

	stdout, err := proc.StdoutPipe()
	if err != nil {
		spawnFailed(err)
		return
	}
	var stdin io.WriteCloser
	if cmd.Streaming {
		if stdin, err = proc.StdinPipe(); err != nil {
			spawnFailed(err)
			return
		}
	}
	if err := proc.Start(); err != nil {
		spawnFailed(err)
		return
	}
	e.logger.Debug("cli: started", "pid", proc.Process.Pid, "dir", proc.Dir)

	waited := false
	defer func() {
		if !waited {
			cancel()
			_ = proc.Wait()
		}
	}()

	if stdin != nil {
		line, _ := json.Marshal(stdinMessage{Role: "user", Content: prompt})
		go func() {
			defer stdin.Close()
			if _, err := stdin.Write(append(line, '\n')); err != nil {
				e.logger.Warn("cli: write prompt", "error", err)
			}
		}()
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		env, ok := e.decodeLine(ctx, text, cmd.JSONLines)
		if !ok {
			continue
		}
		if !yield(env) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		// Stop the child; it may be blocked writing to stdout.
		e.logger.Warn("cli: read stdout", "error", err)
		cancel()
		waited = true
		_ = proc.Wait()
		e.fail(err)
		yield(ai.TextDelta(fmt.Sprintf("\nError reading custom CLI output: %v", err)))
		return
	}

	waited = true
	err = proc.Wait()
	if err == nil {
		return
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		spawnFailed(err)
		return
	}
	e.fail(err)
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		yield(ai.TextDelta("\n[CLI Error]: " + msg))
	}
}

// decodeLine turns one stdout line into an envelope. Lines that are not JSON
// objects pass through verbatim. Objects carrying no text yield nothing.
func (e *Engine) decodeLine(ctx context.Context, line string, jsonLines bool) (ai.Envelope, bool) {
	if !jsonLines {
		return ai.TextDelta(line), true
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil || data == nil {
		return ai.TextDelta(line), true
	}
	if id := firstString(data, "session_id", "sessionId"); id != "" {
		e.saveSession(ctx, id)
	}
	if text := firstContent(data, "content", "message", "text"); text != "" {
		return ai.TextDelta(text), true
	}
	return ai.Envelope{}, false
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := data[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstContent is firstString for text fields. A non-empty value that is not
// a string is rendered as its JSON encoding.
func firstContent(data map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case bool:
			if v {
				return "true"
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'g', -1, 64)
			}
		case []any:
			if len(v) > 0 {
				return rawJSON(v)
			}
		case map[string]any:
			if len(v) > 0 {
				return rawJSON(v)
			}
		}
	}
	return ""
}

func rawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// saveSession persists id so later engines for the same spec directory
// resume it. Without a spec directory the id is not remembered.
func (e *Engine) saveSession(ctx context.Context, id string) {
	if e.specDir == "" {
		return
	}
	if err := e.sessions.Put(ctx, e.specDir, id); err != nil {
		e.logger.Warn("cli: save session", "spec_dir", e.specDir, "error", err)
		return
	}
	e.mu.Lock()
	e.sessionID = id
	e.mu.Unlock()
	e.obs.Emit(event.Event{Type: event.SessionSaved, Provider: providerName, Message: id})
}

func (e *Engine) fail(err error) {
	e.obs.Emit(event.Event{Type: event.TransportError, Provider: providerName, Error: err})
}

// Close releases registered resources. Calling it again returns the first
// result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.pending = false
		e.mu.Unlock()

		var errs []error
		for _, fn := range e.closers {
			errs = append(errs, fn())
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

var _ ai.Engine = (*Engine)(nil)
