package autoclaude

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrClosed is returned by Submit and SetSystemPrompt after Close.
var ErrClosed = errors.New("engine closed")

// Engine is the contract every backend adapter implements.
//
// Submit buffers or transmits one user turn. Stream returns the lazy,
// finite, non-restartable sequence of envelopes produced by that turn,
// which may span several backend round trips when the model uses tools.
// Breaking out of the range loop early stops backend I/O. Close releases
// network and process resources and is safe to call more than once.
type Engine interface {
	Submit(ctx context.Context, message string) error
	Stream(ctx context.Context) iter.Seq[Envelope]
	SetSystemPrompt(prompt string) error
	Close() error
}

// Use runs fn with e and closes e on every exit path, including panics.
// The error from fn takes precedence over the error from Close.
func Use(e Engine, fn func(Engine) error) (err error) {
	defer func() {
		if cerr := e.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

// Run is a convenience for one submit-and-drain cycle. It collects every
// envelope of the turn.
func Run(ctx context.Context, e Engine, message string) ([]Envelope, error) {
	if err := e.Submit(ctx, message); err != nil {
		return nil, err
	}
	var out []Envelope
	for env := range e.Stream(ctx) {
		out = append(out, env)
	}
	return out, nil
}

// TruncationNotice is emitted as a TextDelta when a turn runs out of tool rounds.
func TruncationNotice(maxTurns int) string {
	return fmt.Sprintf("\n[Turn limit of %d tool rounds reached; response truncated]\n", maxTurns)
}
