package tool

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ai "github.com/Holovkat/Auto-Claude"
)

// Option configures the built-in tool handlers.
type Option func(*builtinConfig)

type builtinConfig struct {
	cwd         string
	gate        SecurityGate
	bashTimeout time.Duration
}

// WithCwd sets the directory relative paths and searches resolve against,
// and the directory shell commands run in.
func WithCwd(dir string) Option {
	return func(c *builtinConfig) {
		c.cwd = dir
	}
}

// WithGate sets the security gate consulted before every shell command.
func WithGate(g SecurityGate) Option {
	return func(c *builtinConfig) {
		c.gate = g
	}
}

// WithBashTimeout overrides BashTimeout.
func WithBashTimeout(d time.Duration) Option {
	return func(c *builtinConfig) {
		c.bashTimeout = d
	}
}

// Builtins returns a registry holding the enabled built-in tools, in the
// order given. Repeated and unsupported names are skipped.
func Builtins(enabled []string, opts ...Option) *Registry {
	r := NewRegistry()
	r.AddBuiltins(enabled, opts...)
	return r
}

// AddBuiltins registers the enabled built-in tools that r does not hold yet.
func (r *Registry) AddBuiltins(enabled []string, opts ...Option) {
	cfg := &builtinConfig{bashTimeout: BashTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, t := range Definitions(enabled) {
		if _, exists := r.GetTool(t.Name); exists {
			continue
		}
		r.MustRegister(t, cfg.handler(t.Name))
	}
}

func (c *builtinConfig) handler(name string) Handler {
	switch name {
	case NameRead:
		return func(_ context.Context, call ai.ToolCall) (string, error) {
			path, err := requireString(call.Arguments, "file_path")
			if err != nil {
				return "", err
			}
			return readFile(c.resolve(path), intArg(call.Arguments, "start_line"), intArg(call.Arguments, "end_line"))
		}
	case NameWrite:
		return func(_ context.Context, call ai.ToolCall) (string, error) {
			path, err := requireString(call.Arguments, "file_path")
			if err != nil {
				return "", err
			}
			content, _ := stringArg(call.Arguments, "content")
			return writeFile(c.resolve(path), content)
		}
	case NameEdit:
		return func(_ context.Context, call ai.ToolCall) (string, error) {
			path, err := requireString(call.Arguments, "file_path")
			if err != nil {
				return "", err
			}
			target, err := requireString(call.Arguments, "target_content")
			if err != nil {
				return "", err
			}
			replacement, _ := stringArg(call.Arguments, "replacement_content")
			return editFile(c.resolve(path), target, replacement)
		}
	case NameGlob:
		return func(_ context.Context, call ai.ToolCall) (string, error) {
			pattern, err := requireString(call.Arguments, "pattern")
			if err != nil {
				return "", err
			}
			matches, err := globFiles(pattern, c.rootDir(call.Arguments))
			if err != nil {
				return "", err
			}
			if len(matches) == 0 {
				return "No files found.", nil
			}
			return strings.Join(matches, "\n"), nil
		}
	case NameGrep:
		return func(_ context.Context, call ai.ToolCall) (string, error) {
			query, err := requireString(call.Arguments, "query")
			if err != nil {
				return "", err
			}
			pattern, _ := stringArg(call.Arguments, "pattern")
			return grepFiles(query, pattern, c.rootDir(call.Arguments))
		}
	case NameBash:
		return func(ctx context.Context, call ai.ToolCall) (string, error) {
			command, err := requireString(call.Arguments, "command")
			if err != nil {
				return "", err
			}
			return runShell(ctx, command, c.cwd, c.gate, c.bashTimeout)
		}
	}
	return nil
}

// resolve joins a relative path onto cwd. Anything it cannot interpret is
// passed through for the tool itself to reject.
func (c *builtinConfig) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.cwd == "" {
		return path
	}
	return filepath.Join(c.cwd, path)
}

func (c *builtinConfig) rootDir(args map[string]any) string {
	if dir, ok := stringArg(args, "root_dir"); ok && dir != "" {
		return c.resolve(dir)
	}
	if c.cwd != "" {
		return c.cwd
	}
	return "."
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func requireString(args map[string]any, key string) (string, error) {
	s, ok := stringArg(args, key)
	if !ok {
		return "", failf("Error: Missing required argument: %s", key)
	}
	return s, nil
}

// intArg accepts JSON numbers and numeric strings; anything else is unset.
func intArg(args map[string]any, key string) *int {
	var n int
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil
		}
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}
