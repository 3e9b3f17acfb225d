package autoclaude

import "encoding/json"

// Tool describes a function the model may call.
type Tool struct {
	// Name is the wire name registered with the backend.
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters json.RawMessage
}

// ToolCall is a request from the model to invoke a tool. ID is unique within
// the turn that produced it.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	// ThoughtSignature is an opaque provider token that must be sent back
	// with the call on the next request. Only Gemini sets it.
	ThoughtSignature []byte `json:"thoughtSignature,omitempty"`
}

// ArgumentsJSON encodes the argument mapping as a JSON object.
func (c ToolCall) ArgumentsJSON() string {
	if len(c.Arguments) == 0 {
		return "{}"
	}
	data, err := json.Marshal(c.Arguments)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ParseArguments decodes a JSON argument string. Malformed or non-object
// input yields an empty mapping so the tool can report the specific failure.
func ParseArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	// Name is the tool that produced the result. Some backends address
	// results by name rather than by call id.
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
	IsError bool   `json:"isError,omitempty"`
}

// NewToolResultMessage packages results as a single tool-role history entry.
func NewToolResultMessage(results ...ToolResult) Message {
	return Message{
		Role:        RoleTool,
		ToolResults: results,
	}
}
