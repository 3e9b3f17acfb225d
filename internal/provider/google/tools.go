package google

import (
	"github.com/google/uuid"
	"google.golang.org/genai"

	ai "github.com/Holovkat/Auto-Claude"
)

// convertTools declares every tool as a function in a single genai.Tool.
func convertTools(tools []ai.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func autoToolConfig() *genai.ToolConfig {
	return &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode: genai.FunctionCallingConfigModeAuto,
		},
	}
}

// toolCall converts a function-call part. Gemini only sometimes assigns
// call ids, so a missing one is generated.
func toolCall(part *genai.Part) ai.ToolCall {
	fc := part.FunctionCall
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return ai.ToolCall{ID: id, Name: fc.Name, Arguments: args, ThoughtSignature: part.ThoughtSignature}
}
