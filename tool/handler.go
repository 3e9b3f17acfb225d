package tool

import (
	"context"

	ai "github.com/Holovkat/Auto-Claude"
)

// Handler executes a tool call. A returned error becomes an error result
// whose content is the error text.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)
