package tool

import (
	ai "github.com/Holovkat/Auto-Claude"
)

// Built-in tool names. They are part of the wire contract with every backend.
const (
	NameRead  = "Read"
	NameWrite = "Write"
	NameEdit  = "Edit"
	NameGlob  = "Glob"
	NameGrep  = "Grep"
	NameBash  = "Bash"
)

// BuiltinNames lists every built-in tool in registration order.
var BuiltinNames = []string{NameRead, NameWrite, NameEdit, NameGlob, NameGrep, NameBash}

type readArgs struct {
	FilePath  string `json:"file_path"`
	StartLine *int   `json:"start_line,omitempty"`
	EndLine   *int   `json:"end_line,omitempty"`
}

type writeArgs struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type editArgs struct {
	FilePath           string `json:"file_path"`
	TargetContent      string `json:"target_content"`
	ReplacementContent string `json:"replacement_content"`
}

type globArgs struct {
	Pattern string `json:"pattern"`
	RootDir string `json:"root_dir,omitempty"`
}

type grepArgs struct {
	Query   string `json:"query"`
	Pattern string `json:"pattern,omitempty"`
	RootDir string `json:"root_dir,omitempty"`
}

type bashArgs struct {
	Command string `json:"command"`
}

var definitions = map[string]ai.Tool{
	NameRead: {
		Name:        NameRead,
		Description: "Read a file or a specific range of lines.",
		Parameters: ai.SchemaFrom[readArgs]().
			Desc("file_path", "Path to the file, absolute or relative to the working directory").
			Desc("start_line", "First line to return, 1-indexed").
			Desc("end_line", "Last line to return, inclusive").
			Required("file_path").
			Build(),
	},
	NameWrite: {
		Name:        NameWrite,
		Description: "Create or overwrite a file.",
		Parameters: ai.SchemaFrom[writeArgs]().
			Required("file_path", "content").
			Build(),
	},
	NameEdit: {
		Name:        NameEdit,
		Description: "Edit a file by replacing target_content with replacement_content. The target must occur exactly once.",
		Parameters: ai.SchemaFrom[editArgs]().
			Required("file_path", "target_content", "replacement_content").
			Build(),
	},
	NameGlob: {
		Name:        NameGlob,
		Description: "List files matching a pattern, recursively.",
		Parameters: ai.SchemaFrom[globArgs]().
			Desc("pattern", "Glob pattern such as *.go or src/**/*.ts").
			Desc("root_dir", "Directory to search from; defaults to the working directory").
			Required("pattern").
			Build(),
	},
	NameGrep: {
		Name:        NameGrep,
		Description: "Search file contents with a case-insensitive regular expression.",
		Parameters: ai.SchemaFrom[grepArgs]().
			Desc("query", "Regular expression to look for").
			Desc("pattern", "Glob restricting which files are searched; defaults to *").
			Desc("root_dir", "Directory to search from; defaults to the working directory").
			Required("query").
			Build(),
	},
	NameBash: {
		Name:        NameBash,
		Description: "Execute a bash command.",
		Parameters: ai.SchemaFrom[bashArgs]().
			Required("command").
			Build(),
	},
}

// Definition returns the fixed schema of a built-in tool.
func Definition(name string) (ai.Tool, bool) {
	t, ok := definitions[name]
	return t, ok
}

// Definitions returns the schemas of the enabled built-in tools in the order
// given. Repeated and unsupported names are skipped.
func Definitions(enabled []string) []ai.Tool {
	seen := make(map[string]bool, len(enabled))
	tools := make([]ai.Tool, 0, len(enabled))
	for _, name := range enabled {
		t, ok := definitions[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		tools = append(tools, t)
	}
	return tools
}
