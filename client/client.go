package client

import (
	"context"
	"fmt"
	"log/slog"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
	"github.com/Holovkat/Auto-Claude/internal/provider/anthropic"
	"github.com/Holovkat/Auto-Claude/internal/provider/cli"
	"github.com/Holovkat/Auto-Claude/internal/provider/google"
	"github.com/Holovkat/Auto-Claude/internal/provider/managed"
	"github.com/Holovkat/Auto-Claude/internal/provider/openai"
	"github.com/Holovkat/Auto-Claude/mcp"
	"github.com/Holovkat/Auto-Claude/retry"
	"github.com/Holovkat/Auto-Claude/store"
	"github.com/Holovkat/Auto-Claude/tool"
)

// Option configures New.
type Option func(*options)

type options struct {
	observer event.Observer
	gate     tool.SecurityGate
	sessions store.SessionStore
	retry    *retry.Config
	runtime  managed.Runtime
	logger   *slog.Logger
}

// WithObserver adds an observer next to EngineConfig.Observer.
func WithObserver(o event.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithGate sets the security gate consulted before every Bash call.
// Without one, shell commands are denied.
func WithGate(g tool.SecurityGate) Option {
	return func(opts *options) { opts.gate = g }
}

// WithSessionStore sets where the subprocess adapter keeps session ids.
func WithSessionStore(s store.SessionStore) Option {
	return func(opts *options) { opts.sessions = s }
}

// WithRetry sets the stream-open retry policy of the API adapters.
func WithRetry(c retry.Config) Option {
	return func(opts *options) { opts.retry = &c }
}

// WithRuntime supplies the managed runtime used for the claude provider
// instead of the built-in Anthropic runtime.
func WithRuntime(rt managed.Runtime) Option {
	return func(opts *options) { opts.runtime = rt }
}

func WithLogger(l *slog.Logger) Option {
	return func(opts *options) { opts.logger = l }
}

// New validates cfg and constructs the adapter for its provider.
func New(ctx context.Context, cfg ai.EngineConfig, opts ...Option) (ai.Engine, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	provider, err := ResolveProvider(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Provider = provider
	if provider == ai.ProviderCLI && cfg.Model == "" {
		cfg.Model = cli.DefaultModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	cfg.Observer = observers(cfg, o)
	logger := o.logger.With("provider", string(provider), "model", cfg.Model)

	switch provider {
	case ai.ProviderCLI:
		return newCLI(ctx, cfg, o, logger)
	case ai.ProviderClaude:
		if o.runtime != nil {
			a, err := managed.New(o.runtime)
			if err != nil {
				return nil, err
			}
			return a, nil
		}
	}

	registry, servers, err := Tools(ctx, cfg, o.gate)
	if err != nil {
		return nil, err
	}
	rc := retry.DefaultConfig()
	if o.retry != nil {
		rc = *o.retry
	}

	var engine ai.Engine
	switch provider {
	case ai.ProviderClaude:
		var rt *anthropic.Runtime
		rt, err = anthropic.New(cfg,
			anthropic.WithRegistry(registry),
			anthropic.WithRetry(rc),
			anthropic.WithCloser(servers.Close),
			anthropic.WithLogger(logger),
		)
		if err == nil {
			engine, err = managed.New(rt)
		}
	case ai.ProviderGemini:
		engine, err = google.New(ctx, cfg,
			google.WithRegistry(registry),
			google.WithRetry(rc),
			google.WithCloser(servers.Close),
			google.WithLogger(logger),
		)
	case ai.ProviderOpenAI:
		engine, err = openai.New(cfg,
			openai.WithRegistry(registry),
			openai.WithRetry(rc),
			openai.WithCloser(servers.Close),
			openai.WithLogger(logger),
		)
	default:
		err = &ai.ConfigError{Field: "Provider", Reason: "unsupported provider " + string(provider)}
	}
	if err != nil {
		if cerr := servers.Close(); cerr != nil {
			logger.Warn("close mcp servers", "error", cerr)
		}
		return nil, err
	}
	logger.Debug("engine ready", "tools", registry.Names())
	return engine, nil
}

// ResolveProvider returns the configured provider, or infers one from the
// model when none is set.
func ResolveProvider(cfg ai.EngineConfig) (ai.Provider, error) {
	if cfg.Provider == "" {
		return ai.InferProvider(cfg.Model), nil
	}
	return ai.ParseProvider(string(cfg.Provider))
}

// Tools builds the registry handed to tool-looping adapters: the enabled
// built-ins, then the allowed tools of every configured MCP server. The
// returned set owns the server processes.
func Tools(ctx context.Context, cfg ai.EngineConfig, gate tool.SecurityGate) (*tool.Registry, *mcp.Set, error) {
	builtinOpts := []tool.Option{tool.WithCwd(cfg.Cwd)}
	if gate != nil {
		builtinOpts = append(builtinOpts, tool.WithGate(gate))
	}
	registry := tool.Builtins(cfg.AllowedTools, builtinOpts...)

	servers, err := mcp.Connect(ctx, cfg.MCPServers, registry, cfg.AllowedTools)
	if err != nil {
		return nil, nil, &ai.ConfigError{Field: "MCPServers", Reason: "connect", Cause: err}
	}
	return registry, servers, nil
}

func newCLI(ctx context.Context, cfg ai.EngineConfig, o options, logger *slog.Logger) (ai.Engine, error) {
	cliOpts := []cli.Option{cli.WithLogger(logger)}
	var db *store.SQLiteStore
	switch {
	case o.sessions != nil:
		cliOpts = append(cliOpts, cli.WithSessionStore(o.sessions))
	case cfg.Getenv(SessionDBEnv) != "":
		path := cfg.Getenv(SessionDBEnv)
		var err error
		db, err = store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, &ai.ConfigError{Field: SessionDBEnv, Reason: fmt.Sprintf("open %s", path), Cause: err}
		}
		cliOpts = append(cliOpts, cli.WithSessionStore(db), cli.WithCloser(db.Close))
	}
	if len(cfg.MCPServers) > 0 {
		logger.Debug("mcp servers are not started for the cli provider", "servers", len(cfg.MCPServers))
	}

	e, err := cli.New(ctx, cfg, cliOpts...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return e, nil
}

// observers combines the configured observer, the option observer and, in
// verbose mode, a slog bridge.
func observers(cfg ai.EngineConfig, o options) event.Observer {
	var list []event.Observer
	if cfg.Observer != nil {
		list = append(list, cfg.Observer)
	}
	if o.observer != nil {
		list = append(list, o.observer)
	}
	if cfg.Verbose {
		list = append(list, event.SlogObserver(o.logger, true))
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return event.Multi(list...)
}
