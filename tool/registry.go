package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ai "github.com/Holovkat/Auto-Claude"
)

type registeredTool struct {
	tool    ai.Tool
	handler Handler
}

// Registry maps tool names to schemas and handlers. Tools are reported in
// registration order. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool and its handler.
func (r *Registry) Register(t ai.Tool, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: t.Name}
	}
	r.tools[t.Name] = registeredTool{tool: t, handler: h}
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t ai.Tool, h Handler) {
	if err := r.Register(t, h); err != nil {
		panic(err)
	}
}

// GetTool returns a tool definition by name.
func (r *Registry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.tool, ok
}

// Tools returns every registered definition in registration order.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Execute runs the handler for call. An unknown tool returns
// ErrToolNotFound; a handler error is captured in the result.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	content, err := rt.handler(ctx, call)
	if err != nil {
		return ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}
	return ai.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    content,
	}, nil
}

// Dispatch is Execute for use inside a conversation: it never fails, and an
// unknown tool becomes an error result the model can read.
func (r *Registry) Dispatch(ctx context.Context, call ai.ToolCall) ai.ToolResult {
	res, err := r.Execute(ctx, call)
	var notFound *ErrToolNotFound
	switch {
	case errors.As(err, &notFound):
		return ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("Error: Tool %s not implemented.", call.Name),
			IsError:    true,
		}
	case err != nil:
		return ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: "Error: " + err.Error(), IsError: true}
	}
	return res
}
