package google

import (
	"google.golang.org/genai"

	ai "github.com/Holovkat/Auto-Claude"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// convertHistory maps the neutral conversation onto Gemini contents. The
// system entry travels separately as SystemInstruction, so callers pass the
// conversation without it.
func convertHistory(messages []ai.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		role := roleUser
		if msg.Role == ai.RoleAssistant {
			role = roleModel
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall:     &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Arguments},
				ThoughtSignature: tc.ThoughtSignature,
			})
		}
		for _, tr := range msg.ToolResults {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       tr.ToolCallID,
					Name:     tr.Name,
					Response: map[string]any{"result": tr.Content},
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}
	return contents
}

// systemInstruction wraps the prompt, or returns nil when it is empty.
func systemInstruction(prompt string) *genai.Content {
	if prompt == "" {
		return nil
	}
	return &genai.Content{Parts: []*genai.Part{{Text: prompt}}}
}
