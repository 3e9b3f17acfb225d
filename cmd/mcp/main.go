// Command mcp serves the built-in file and shell tools over MCP stdio, so
// any MCP client can use the same Read, Write, Edit, Glob, Grep and Bash
// implementations as the engines.
//
// Usage:
//
//	go run ./cmd/mcp -cwd /path/to/project -tools Read,Glob,Grep
//
// Configuration for an MCP client:
//
//	{
//	    "mcpServers": {
//	        "autoclaude-tools": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp", "-cwd", "/path/to/project"]
//	        }
//	    }
//	}
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/Holovkat/Auto-Claude/mcp"
	"github.com/Holovkat/Auto-Claude/tool"
)

func main() {
	cwd := flag.String("cwd", "", "directory tools resolve relative paths against (default: current directory)")
	tools := flag.String("tools", strings.Join(tool.BuiltinNames, ","), "comma-separated built-in tools to serve")
	allowBash := flag.Bool("allow-bash", false, "let the Bash tool run any command")
	flag.Parse()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	dir := *cwd
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatal(err)
		}
		dir = wd
	}

	opts := []tool.Option{tool.WithCwd(dir)}
	if *allowBash {
		opts = append(opts, tool.WithGate(tool.AllowAll))
	}
	registry := tool.Builtins(strings.Split(*tools, ","), opts...)

	if err := mcp.ServeStdio(registry,
		mcp.WithName("autoclaude-tools"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
}
