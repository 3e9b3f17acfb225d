// Package tool implements the built-in tool set the engines expose to models:
// Read, Write, Edit, Glob, Grep and Bash.
//
// The operations are plain functions that never fail. Every failure comes
// back as an "Error: ..." string so a model can observe it and react:
//
//	out := tool.Read("main.go", nil, nil)
//	tool.Edit("main.go", "old", "new")
//	files := tool.Glob("*.go", projectDir)
//	hits := tool.Grep("todo", "*.go", projectDir)
//	res := tool.Bash(ctx, "go test ./...", projectDir, gate)
//
// Bash consults a [SecurityGate] before spawning anything and enforces
// [BashTimeout].
//
// Engines do not call the functions directly. They build a [Registry] with
// [Builtins], which binds the fixed wire schemas to handlers that resolve
// relative paths against the working directory:
//
//	reg := tool.Builtins([]string{"Read", "Bash"},
//	    tool.WithCwd(projectDir),
//	    tool.WithGate(gate),
//	)
//	result := reg.Dispatch(ctx, call)
package tool
