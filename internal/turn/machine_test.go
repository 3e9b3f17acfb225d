package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) observe(e event.Event) { r.events = append(r.events, e) }

func (r *recorder) states() []event.State {
	var out []event.State
	for _, e := range r.events {
		if e.Type == event.StateChange {
			out = append(out, e.State)
		}
	}
	return out
}

func TestMachineToolRound(t *testing.T) {
	rec := &recorder{}
	m := New("gemini", 5, rec.observe)

	m.Begin()
	m.Request()
	require.True(t, m.ToolsRequested())
	m.Execute()
	m.Request()
	m.Finish()

	assert.Equal(t, []event.State{
		event.StateStreaming,
		event.StateToolsPending,
		event.StateExecuting,
		event.StateStreaming,
		event.StateCompleted,
	}, rec.states())
	assert.Equal(t, 2, m.Round())
	assert.Equal(t, 1, m.ToolRounds())
	assert.Equal(t, event.TurnStart, rec.events[0].Type)
	assert.Equal(t, event.TurnEnd, rec.events[len(rec.events)-1].Type)
	for _, e := range rec.events {
		assert.Equal(t, "gemini", e.Provider)
	}
}

func TestMachineBudget(t *testing.T) {
	m := New("openai", 2, nil)
	m.Begin()

	for range 2 {
		m.Request()
		require.True(t, m.ToolsRequested())
		m.Execute()
	}
	m.Request()
	assert.False(t, m.ToolsRequested())

	env := m.Truncate()
	assert.Equal(t, ai.KindTextDelta, env.Kind)
	assert.Equal(t, ai.TruncationNotice(2), env.Text)
	assert.Equal(t, event.StateCompleted, m.State())
}

func TestMachineDefaultsBudget(t *testing.T) {
	assert.Equal(t, ai.DefaultMaxTurns, New("x", 0, nil).MaxTurns())
}

func TestMachineReusableAcrossTurns(t *testing.T) {
	m := New("x", 3, nil)
	m.Begin()
	m.Request()
	m.Finish()
	m.Finish()

	m.Begin()
	assert.Equal(t, event.StateIdle, m.State())
	assert.Equal(t, 0, m.Round())
	m.Request()
	assert.Equal(t, 1, m.Round())
}

func TestMachineIllegalTransitionIgnored(t *testing.T) {
	rec := &recorder{}
	m := New("x", 3, rec.observe)
	m.Begin()

	require.NotPanics(t, func() { m.Execute() })
	assert.Equal(t, event.StateIdle, m.State())
	assert.Equal(t, 0, m.ToolRounds())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, event.IllegalTransition, last.Type)
	assert.Equal(t, event.StateIdle, last.State)
	assert.Equal(t, "idle -> executing", last.Message)
	require.Error(t, last.Error)

	t.Run("machine still usable", func(t *testing.T) {
		m.Request()
		assert.Equal(t, event.StateStreaming, m.State())
		m.Finish()
		assert.Equal(t, event.StateCompleted, m.State())
	})
}

func TestMachineFail(t *testing.T) {
	rec := &recorder{}
	m := New("openai", 3, rec.observe)
	m.Begin()
	m.Request()

	env := m.Fail(assert.AnError)

	assert.Contains(t, env.Text, "[openai error]")
	assert.Contains(t, env.Text, assert.AnError.Error())
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, event.TransportError, last.Type)
	assert.Equal(t, 1, last.Round)
}
