package autoclaude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgumentsJSON(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"nil", nil, `{}`},
		{"empty", map[string]any{}, `{}`},
		{"values", map[string]any{"file_path": "a.go", "start_line": 3}, `{"file_path":"a.go","start_line":3}`},
		{"unencodable", map[string]any{"ch": make(chan int)}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, ToolCall{Arguments: tt.args}.ArgumentsJSON())
		})
	}
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"object", `{"command":"ls -la"}`, map[string]any{"command": "ls -la"}},
		{"truncated", `{"command":"ls`, map[string]any{}},
		{"array", `["ls"]`, map[string]any{}},
		{"null", `null`, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArguments(tt.raw))
		})
	}
}
