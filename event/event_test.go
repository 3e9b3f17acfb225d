package event

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	var nilObs Observer
	assert.NotPanics(t, func() { nilObs.Emit(Event{Type: TurnStart}) })

	var got []Event
	obs := Observer(func(e Event) { got = append(got, e) })
	obs.Emit(Event{Type: TurnStart, Provider: "gemini"})

	require.Len(t, got, 1)
	assert.Equal(t, "gemini", got[0].Provider)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestMulti(t *testing.T) {
	var a, b int
	obs := Multi(func(Event) { a++ }, nil, func(Event) { b++ })
	obs.Emit(Event{Type: TurnEnd})
	obs.Emit(Event{Type: TurnEnd})
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	quiet := SlogObserver(logger, false)
	quiet.Emit(Event{Type: StateChange, State: StateStreaming})
	assert.Empty(t, buf.String())

	quiet.Emit(Event{Type: TransportError, Provider: "openai", Error: errors.New("connection reset")})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "connection reset")

	buf.Reset()
	loud := SlogObserver(logger, true)
	loud.Emit(Event{Type: ToolCallResult, Provider: "claude", ToolName: "Bash", ToolCallID: "t1", IsError: true})
	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "tool=Bash")
	assert.Contains(t, out, "is_error=true")

	buf.Reset()
	loud.Emit(Event{Type: Retrying, Attempt: 2})
	assert.Contains(t, buf.String(), "attempt=2")
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateStreaming, true},
		{StateIdle, StateCompleted, true},
		{StateIdle, StateExecuting, false},
		{StateStreaming, StateToolsPending, true},
		{StateStreaming, StateExecuting, false},
		{StateToolsPending, StateExecuting, true},
		{StateExecuting, StateStreaming, true},
		{StateExecuting, StateToolsPending, false},
		{StateCompleted, StateIdle, true},
		{StateCompleted, StateStreaming, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}
