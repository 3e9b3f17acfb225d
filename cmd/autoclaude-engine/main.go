// Command autoclaude-engine streams one prompt through an engine and prints
// the result.
//
// Configuration comes from the environment (a .env file in the working
// directory is loaded first) and may be overridden by flags:
//
//	AUTO_CLAUDE_PROVIDER  - claude, gemini, openai or cli (inferred from the model when unset)
//	AUTO_CLAUDE_MODEL     - model name
//	AUTO_CLAUDE_MAX_TURNS - tool rounds per turn
//	AUTO_CLAUDE_LOG_LEVEL - debug, info, warn or error
//
// Usage:
//
//	autoclaude-engine -provider gemini -model gemini-2.5-flash -prompt "list the Go files"
//	echo "summarize README.md" | autoclaude-engine -agui
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/client"
	"github.com/Holovkat/Auto-Claude/tool"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	prompt    string
	model     string
	provider  string
	specDir   string
	cwd       string
	tools     string
	system    string
	mcpConfig string
	maxTurns  int
	agui      bool
	allowBash bool
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("autoclaude-engine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.prompt, "prompt", "", "prompt to send; read from stdin when empty")
	fs.StringVar(&o.model, "model", "", "model name (overrides "+client.ModelEnv+")")
	fs.StringVar(&o.provider, "provider", "", "claude, gemini, openai or cli (overrides "+client.ProviderEnv+")")
	fs.StringVar(&o.specDir, "spec-dir", "", "directory for per-spec state such as the CLI session marker")
	fs.StringVar(&o.cwd, "cwd", "", "working directory for tools")
	fs.StringVar(&o.tools, "tools", strings.Join(tool.BuiltinNames, ","), "comma-separated built-in tools to enable")
	fs.StringVar(&o.system, "system", "", "system prompt")
	fs.StringVar(&o.mcpConfig, "mcp", "", "JSON file mapping server names to MCP stdio server configs")
	fs.IntVar(&o.maxTurns, "max-turns", 0, "tool rounds per turn (overrides "+client.MaxTurnsEnv+")")
	fs.BoolVar(&o.agui, "agui", false, "write AG-UI server-sent events instead of text")
	fs.BoolVar(&o.allowBash, "allow-bash", false, "let the Bash tool run any command")
	fs.BoolVar(&o.verbose, "v", false, "log engine events")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.prompt == "" && fs.NArg() > 0 {
		o.prompt = strings.Join(fs.Args(), " ")
	}
	return o, nil
}

// config layers flags over the environment.
func (o options) config() (ai.EngineConfig, error) {
	cfg := client.ConfigFromEnv()
	if o.provider != "" {
		cfg.Provider = ai.Provider(o.provider)
	}
	if o.model != "" {
		cfg.Model = o.model
	} else if p, err := client.ResolveProvider(cfg); err == nil && p == ai.ProviderCLI && os.Getenv(client.ModelEnv) == "" {
		cfg.Model = ""
	}
	cfg.SpecDir = o.specDir
	cfg.Cwd = o.cwd
	cfg.SystemPrompt = o.system
	cfg.AllowedTools = splitList(o.tools)
	cfg.Verbose = o.verbose
	if o.maxTurns > 0 {
		cfg.MaxTurns = o.maxTurns
	}
	if o.mcpConfig != "" {
		servers, err := loadMCPConfig(o.mcpConfig)
		if err != nil {
			return cfg, err
		}
		cfg.MCPServers = servers
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadMCPConfig(path string) (map[string]ai.MCPServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcp config: %w", err)
	}
	var doc struct {
		MCPServers map[string]ai.MCPServerConfig `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mcp config %s: %w", path, err)
	}
	return doc.MCPServers, nil
}

func readPrompt(o options, stdin io.Reader) (string, error) {
	if strings.TrimSpace(o.prompt) != "" {
		return o.prompt, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("no prompt given: use -prompt or pipe one on stdin")
	}
	return prompt, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := newLogger(stderr, parseLevel(os.Getenv(logLevelEnv), o.verbose), false)
	slog.SetDefault(logger)

	cfg, err := o.config()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	prompt, err := readPrompt(o, stdin)
	if err != nil {
		logger.Error("no prompt", "error", err)
		return 1
	}

	var clientOpts []client.Option
	clientOpts = append(clientOpts, client.WithLogger(logger))
	if o.allowBash {
		clientOpts = append(clientOpts, client.WithGate(tool.AllowAll))
	}

	engine, err := client.New(ctx, cfg, clientOpts...)
	if err != nil {
		logger.Error("create engine", "error", err)
		return 1
	}

	err = ai.Use(engine, func(e ai.Engine) error {
		if err := e.Submit(ctx, prompt); err != nil {
			return err
		}
		if o.agui {
			return streamAGUI(stdout, e.Stream(ctx))
		}
		streamText(stdout, e.Stream(ctx))
		return nil
	})
	if err != nil {
		logger.Error("turn failed", "error", err)
		return 1
	}
	return 0
}
