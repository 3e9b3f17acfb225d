package tool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// BashTimeout is the hard ceiling on one shell command.
const BashTimeout = 300 * time.Second

// SecurityGate decides whether a shell command may run inside projectDir.
// Implementations must be safe for concurrent use.
type SecurityGate interface {
	Validate(command, projectDir string) (allowed bool, reason string)
}

// GateFunc adapts a function to SecurityGate.
type GateFunc func(command, projectDir string) (bool, string)

// Validate calls f.
func (f GateFunc) Validate(command, projectDir string) (bool, string) {
	return f(command, projectDir)
}

// AllowAll permits every command.
var AllowAll SecurityGate = GateFunc(func(string, string) (bool, string) { return true, "" })

// DenyAll refuses every command with reason.
func DenyAll(reason string) SecurityGate {
	return GateFunc(func(string, string) (bool, string) { return false, reason })
}

// Bash runs command through the system shell in cwd after consulting gate.
// A nil gate denies. Stderr, when present, follows stdout under a
// "Stderr:" heading. A non-zero exit status is not an error; the output
// speaks for itself.
func Bash(ctx context.Context, command, cwd string, gate SecurityGate) string {
	return payload(runShell(ctx, command, cwd, gate, BashTimeout))
}

func runShell(ctx context.Context, command, cwd string, gate SecurityGate, timeout time.Duration) (string, error) {
	projectDir := cwd
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	if gate == nil {
		gate = DenyAll("no security policy configured")
	}
	if ok, reason := gate.Validate(command, projectDir); !ok {
		return "", failf("Error: Command blocked by security policy: %s", reason)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(runCtx, command)
	cmd.Dir = cwd
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", failf("Error: Command timed out after %d seconds.", int(timeout.Seconds()))
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", failf("Error executing command: %v", err)
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\nStderr:\n" + stderr.String()
	}
	if output == "" {
		return "[Command executed with no output]", nil
	}
	return output, nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "/bin/sh", "-c", command)
}
