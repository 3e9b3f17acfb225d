package managed

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/Holovkat/Auto-Claude"
)

type fakeRuntime struct {
	submitted []string
	system    string
	envs      []ai.Envelope
	yielded   int
	closes    int
	closeErr  error
}

func (f *fakeRuntime) Submit(_ context.Context, msg string) error {
	f.submitted = append(f.submitted, msg)
	return nil
}

func (f *fakeRuntime) Stream(context.Context) iter.Seq[ai.Envelope] {
	return func(yield func(ai.Envelope) bool) {
		for _, env := range f.envs {
			f.yielded++
			if !yield(env) {
				return
			}
		}
	}
}

func (f *fakeRuntime) SetSystemPrompt(p string) error {
	f.system = p
	return nil
}

func (f *fakeRuntime) Close() error {
	f.closes++
	return f.closeErr
}

func TestNilRuntimeFailsFast(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, ai.IsConfigError(err))
}

func TestDelegatesUnchanged(t *testing.T) {
	call := ai.ToolCall{ID: "t1", Name: "Read", Arguments: map[string]any{"file_path": "a"}}
	rt := &fakeRuntime{envs: []ai.Envelope{
		ai.TextDelta("hi"),
		ai.ToolUse(call),
		ai.ToolOutcome(ai.ToolResult{ToolCallID: "t1", Content: "x"}),
	}}
	a, err := New(rt)
	require.NoError(t, err)

	envs, err := ai.Run(context.Background(), a, "hello")
	require.NoError(t, err)
	assert.Equal(t, rt.envs, envs)
	assert.Equal(t, []string{"hello"}, rt.submitted)

	require.NoError(t, a.SetSystemPrompt("sys"))
	assert.Equal(t, "sys", rt.system)
}

func TestUseClosesOnEarlyBreak(t *testing.T) {
	rt := &fakeRuntime{envs: []ai.Envelope{ai.TextDelta("a"), ai.TextDelta("b"), ai.TextDelta("c")}}
	a, err := New(rt)
	require.NoError(t, err)

	err = ai.Use(a, func(e ai.Engine) error {
		if err := e.Submit(context.Background(), "go"); err != nil {
			return err
		}
		for range e.Stream(context.Background()) {
			break
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, rt.yielded)
	assert.Equal(t, 1, rt.closes)
}

func TestUseClosesOnError(t *testing.T) {
	rt := &fakeRuntime{closeErr: errors.New("close failed")}
	a, err := New(rt)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = ai.Use(a, func(ai.Engine) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rt.closes)
}

func TestCloseIdempotent(t *testing.T) {
	rt := &fakeRuntime{closeErr: errors.New("close failed")}
	a, err := New(rt)
	require.NoError(t, err)

	first := a.Close()
	second := a.Close()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, rt.closes)

	assert.ErrorIs(t, a.Submit(context.Background(), "late"), ai.ErrClosed)
	assert.ErrorIs(t, a.SetSystemPrompt("late"), ai.ErrClosed)
	for range a.Stream(context.Background()) {
		t.Fatal("stream after close")
	}
	assert.Empty(t, rt.submitted)
}
