// Package managed adapts an agent runtime that runs its own tool loop, such
// as the Claude runtime, to the engine contract. It adds no state machine;
// envelopes are re-yielded unchanged.
package managed

import (
	"context"
	"iter"
	"sync"

	ai "github.com/Holovkat/Auto-Claude"
)

// Runtime is a managed agent client. Its method set matches ai.Engine, but
// a Runtime need not make the lifecycle guarantees the Adapter adds.
type Runtime interface {
	Submit(ctx context.Context, message string) error
	Stream(ctx context.Context) iter.Seq[ai.Envelope]
	SetSystemPrompt(prompt string) error
	Close() error
}

// Adapter delegates to a Runtime.
type Adapter struct {
	rt Runtime

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// New wraps rt. A nil runtime means the managed dependency is unavailable,
// which is a configuration error.
func New(rt Runtime) (*Adapter, error) {
	if rt == nil {
		return nil, &ai.ConfigError{Field: "Provider", Reason: "managed runtime unavailable"}
	}
	return &Adapter{rt: rt}, nil
}

func (a *Adapter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *Adapter) Submit(ctx context.Context, message string) error {
	if a.isClosed() {
		return ai.ErrClosed
	}
	return a.rt.Submit(ctx, message)
}

// Stream re-yields the runtime's envelopes. Nothing is yielded after Close.
func (a *Adapter) Stream(ctx context.Context) iter.Seq[ai.Envelope] {
	return func(yield func(ai.Envelope) bool) {
		if a.isClosed() {
			return
		}
		for env := range a.rt.Stream(ctx) {
			if !yield(env) {
				return
			}
		}
	}
}

func (a *Adapter) SetSystemPrompt(prompt string) error {
	if a.isClosed() {
		return ai.ErrClosed
	}
	return a.rt.SetSystemPrompt(prompt)
}

// Close closes the runtime once; later calls return the first result.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.closeErr = a.rt.Close()
	})
	return a.closeErr
}

var _ ai.Engine = (*Adapter)(nil)
