package autoclaude

import "github.com/google/uuid"

// Role tags an entry in a conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one role-tagged entry of a ConversationHistory.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls is set on assistant entries that requested tool use.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults is set on tool entries.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// EnvelopeKind discriminates the Envelope union.
type EnvelopeKind string

const (
	KindTextDelta   EnvelopeKind = "text_delta"
	KindToolUse     EnvelopeKind = "tool_use"
	KindToolOutcome EnvelopeKind = "tool_outcome"
)

// Envelope is a normalized unit of engine output. Exactly one of Text, Call
// or Result is meaningful, selected by Kind.
type Envelope struct {
	Kind   EnvelopeKind `json:"kind"`
	Text   string       `json:"text,omitempty"`
	Call   ToolCall     `json:"call,omitzero"`
	Result ToolResult   `json:"result,omitzero"`
}

// TextDelta wraps a fragment of assistant text.
func TextDelta(text string) Envelope {
	return Envelope{Kind: KindTextDelta, Text: text}
}

// ToolUse wraps a tool-call request made by the model.
func ToolUse(call ToolCall) Envelope {
	return Envelope{Kind: KindToolUse, Call: call}
}

// ToolOutcome wraps the result of executing a tool call.
func ToolOutcome(result ToolResult) Envelope {
	return Envelope{Kind: KindToolOutcome, Result: result}
}

// CollectText concatenates the text of every TextDelta in envs.
func CollectText(envs []Envelope) string {
	n := 0
	for _, e := range envs {
		n += len(e.Text)
	}
	buf := make([]byte, 0, n)
	for _, e := range envs {
		if e.Kind == KindTextDelta {
			buf = append(buf, e.Text...)
		}
	}
	return string(buf)
}
