package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/tool"
)

const clientName = "autoclaude-engine"

// Server is one connected tool server.
type Server struct {
	name   string
	client *client.Client
	tools  []mcp.Tool
}

// Dial starts the server described by cfg over stdio, initializes the
// session and lists its tools.
func Dial(ctx context.Context, name string, cfg ai.MCPServerConfig) (*Server, error) {
	env := make([]string, 0, len(cfg.Env))
	for _, k := range slices.Sorted(maps.Keys(cfg.Env)) {
		env = append(env, k+"="+cfg.Env[k])
	}
	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start %s: %w", name, err)
	}
	return DialClient(ctx, name, c)
}

// DialClient initializes an already constructed client, such as an
// in-process one, and lists its tools. The client is closed on failure.
func DialClient(ctx context.Context, name string, c *client.Client) (*Server, error) {
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: start %s: %w", name, err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0.0"}
	if _, err := c.Initialize(ctx, req); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize %s: %w", name, err)
	}

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: list tools of %s: %w", name, err)
	}
	return &Server{name: name, client: c, tools: result.Tools}, nil
}

func (s *Server) Name() string { return s.name }

// Tools returns the server's tool definitions under their qualified names.
func (s *Server) Tools() []ai.Tool {
	out := make([]ai.Tool, len(s.tools))
	for i, t := range s.tools {
		out[i] = FromMCPTool(s.name, t)
	}
	return out
}

// Call invokes the server tool toolName. Transport failures and error
// results both come back as "Error: ..." failures.
func (s *Server) Call(ctx context.Context, toolName string, args map[string]any) (string, error) {
	result, err := s.client.CallTool(ctx, callRequest(toolName, args))
	if err != nil {
		return "", tool.Failure(fmt.Sprintf("Error: MCP tool %s failed: %v", QualifiedName(s.name, toolName), err))
	}
	text, isError := resultText(result)
	if isError {
		switch {
		case text == "":
			text = "Error: MCP tool " + QualifiedName(s.name, toolName) + " reported an error"
		case !strings.HasPrefix(text, "Error"):
			text = "Error: " + text
		}
		return "", tool.Failure(text)
	}
	return text, nil
}

// Register adds the server's allowed tools to r and returns their
// qualified names.
func (s *Server) Register(r *tool.Registry, allowed []string) ([]string, error) {
	var names []string
	for _, t := range s.tools {
		if !Allowed(s.name, t.Name, allowed) {
			continue
		}
		remote := t.Name
		def := FromMCPTool(s.name, t)
		err := r.Register(def, func(ctx context.Context, call ai.ToolCall) (string, error) {
			return s.Call(ctx, remote, call.Arguments)
		})
		if err != nil {
			return names, err
		}
		names = append(names, def.Name)
	}
	return names, nil
}

func (s *Server) Close() error {
	return s.client.Close()
}

// Set is the group of servers started for one engine.
type Set struct {
	servers []*Server
}

// Connect starts every configured server in name order and registers the
// allowed tools in r. If any server fails, those already started are
// closed and the error is returned.
func Connect(ctx context.Context, configs map[string]ai.MCPServerConfig, r *tool.Registry, allowed []string) (*Set, error) {
	set := &Set{}
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		srv, err := Dial(ctx, name, configs[name])
		if err != nil {
			set.Close()
			return nil, err
		}
		set.servers = append(set.servers, srv)
		registered, err := srv.Register(r, allowed)
		if err != nil {
			set.Close()
			return nil, err
		}
		slog.Debug("mcp server connected", "server", name, "tools", registered)
	}
	return set, nil
}

// Len returns the number of connected servers.
func (s *Set) Len() int {
	return len(s.servers)
}

// Close shuts every server down.
func (s *Set) Close() error {
	var errs []error
	for _, srv := range s.servers {
		if err := srv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mcp: close %s: %w", srv.name, err))
		}
	}
	s.servers = nil
	return errors.Join(errs...)
}
