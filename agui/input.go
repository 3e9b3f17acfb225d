package agui

import (
	"errors"
	"strings"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

// RunAgentInput is the body of an AG-UI run request.
type RunAgentInput struct {
	ThreadID       string           `json:"threadId"`
	RunID          string           `json:"runId"`
	Messages       []events.Message `json:"messages"`
	Tools          []any            `json:"tools,omitempty"`
	Context        []any            `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwardedProps,omitempty"`
}

// ErrNoMessages is returned when the input carries no user message.
var ErrNoMessages = errors.New("agui: no user message provided")

// Prompt returns the content of the last user message. The engine keeps
// its own history, so earlier messages are not replayed.
func (r *RunAgentInput) Prompt() (string, error) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		msg := r.Messages[i]
		if msg.Role == "user" && msg.Content != nil && strings.TrimSpace(*msg.Content) != "" {
			return *msg.Content, nil
		}
	}
	return "", ErrNoMessages
}

// SystemPrompt joins the content of every system message.
func (r *RunAgentInput) SystemPrompt() string {
	var parts []string
	for _, msg := range r.Messages {
		if msg.Role == "system" && msg.Content != nil && *msg.Content != "" {
			parts = append(parts, *msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
