// Package mcp connects external tool servers speaking the Model Context
// Protocol and exposes their tools next to the built-ins.
//
// Each configured server is started over stdio and its tools are
// registered in a [tool.Registry] under qualified names of the form
// mcp__<server>__<tool>. A tool is only registered when its qualified name,
// or the wildcard mcp__<server>__*, is among the allowed tool names:
//
//	set, err := mcp.Connect(ctx, cfg.MCPServers, registry, cfg.AllowedTools)
//	if err != nil {
//	    return err
//	}
//	defer set.Close()
//
// The reverse direction is covered by [NewServer], which serves a registry
// to MCP clients.
package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/Holovkat/Auto-Claude"
)

const namePrefix = "mcp__"

// QualifiedName is the name under which server's tool is registered.
func QualifiedName(server, toolName string) string {
	return namePrefix + server + "__" + toolName
}

// Allowed reports whether the qualified name of server's tool is enabled by
// allowed, either directly or through the server wildcard.
func Allowed(server, toolName string, allowed []string) bool {
	name := QualifiedName(server, toolName)
	wildcard := namePrefix + server + "__*"
	for _, a := range allowed {
		if a == name || a == wildcard {
			return true
		}
	}
	return false
}

// ToMCPTool converts a tool definition to an MCP tool.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// FromMCPTool converts server's MCP tool to a definition registered under
// its qualified name.
func FromMCPTool(server string, t mcp.Tool) ai.Tool {
	schema := t.RawInputSchema
	if len(schema) == 0 {
		if data, err := json.Marshal(t.InputSchema); err == nil {
			schema = data
		}
	}
	return ai.Tool{
		Name:        QualifiedName(server, t.Name),
		Description: t.Description,
		Parameters:  schema,
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	if len(args) > 0 {
		req.Params.Arguments = args
	}
	return req
}

// resultText flattens a call result into the text handed to the model.
func resultText(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", true
	}
	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n"), result.IsError
}
