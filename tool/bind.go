package tool

import (
	"context"
	"encoding/json"

	ai "github.com/Holovkat/Auto-Claude"
)

// TypedHandler handles a call whose arguments were decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)

// Bind creates a Tool and Handler from a typed function. The parameter
// schema is reflected from T's json tags; required lists the properties the
// model must supply.
//
//	type lintArgs struct {
//	    Path string `json:"path"`
//	}
//
//	t, h := tool.Bind("Lint", "Run the linter on a package",
//	    func(ctx context.Context, args lintArgs) (string, error) {
//	        return runLint(ctx, args.Path)
//	    }, "path")
func Bind[T any](name, description string, fn TypedHandler[T], required ...string) (ai.Tool, Handler) {
	t := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  ai.SchemaFrom[T]().Required(required...).Build(),
	}

	handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if err := json.Unmarshal([]byte(call.ArgumentsJSON()), &args); err != nil {
			return "", failf("Error: invalid arguments for %s: %v", name, err)
		}
		for _, key := range required {
			if _, ok := call.Arguments[key]; !ok {
				return "", failf("Error: Missing required argument: %s", key)
			}
		}
		return fn(ctx, args)
	}
	return t, handler
}

// BindTo binds fn and registers it on r.
func BindTo[T any](r *Registry, name, description string, fn TypedHandler[T], required ...string) error {
	t, h := Bind(name, description, fn, required...)
	return r.Register(t, h)
}
