// Package turn tracks the state of a single engine turn:
//
//	Idle -> Streaming -> (ToolsPending -> Executing -> Streaming)* -> Completed
//
// Adapters drive their own loops and report progress through a Machine. It
// counts tool rounds against the budget and forwards every step to the
// engine's observer. A transition the graph does not allow is reported as an
// IllegalTransition event and ignored.
package turn

import (
	"fmt"

	ai "github.com/Holovkat/Auto-Claude"
	"github.com/Holovkat/Auto-Claude/event"
)

// Machine is the per-adapter turn state. It is not safe for concurrent use;
// an adapter processes one turn at a time.
type Machine struct {
	provider string
	maxTurns int
	obs      event.Observer

	state      event.State
	round      int
	toolRounds int
}

// New creates a Machine in the Idle state. A maxTurns below 1 falls back to
// ai.DefaultMaxTurns.
func New(provider string, maxTurns int, obs event.Observer) *Machine {
	if maxTurns < 1 {
		maxTurns = ai.DefaultMaxTurns
	}
	return &Machine{provider: provider, maxTurns: maxTurns, obs: obs, state: event.StateIdle}
}

func (m *Machine) State() event.State { return m.state }

// Round returns the 1-indexed backend request of the current turn.
func (m *Machine) Round() int { return m.round }

// ToolRounds returns how many tool rounds have executed in the current turn.
func (m *Machine) ToolRounds() int { return m.toolRounds }

// MaxTurns returns the tool round budget.
func (m *Machine) MaxTurns() int { return m.maxTurns }

// Begin starts a new turn. A Machine left Completed by the previous turn is
// reset to Idle first.
func (m *Machine) Begin() {
	if m.state == event.StateCompleted {
		m.state = event.StateIdle
	}
	m.round, m.toolRounds = 0, 0
	m.emit(event.Event{Type: event.TurnStart})
}

// Request moves to Streaming for the next backend request.
func (m *Machine) Request() {
	m.round++
	m.to(event.StateStreaming)
	m.emit(event.Event{Type: event.RequestStart})
}

// ToolsRequested moves to ToolsPending. It reports false when the budget is
// spent, in which case the caller must Truncate instead of executing.
func (m *Machine) ToolsRequested() bool {
	m.to(event.StateToolsPending)
	return m.toolRounds < m.maxTurns
}

// Execute moves to Executing and counts one tool round.
func (m *Machine) Execute() {
	if m.to(event.StateExecuting) {
		m.toolRounds++
	}
}

// ToolStart and ToolDone report a single tool execution.
func (m *Machine) ToolStart(call ai.ToolCall) {
	m.emit(event.Event{Type: event.ToolCallStart, ToolName: call.Name, ToolCallID: call.ID})
}

func (m *Machine) ToolDone(result ai.ToolResult) {
	m.emit(event.Event{
		Type:       event.ToolCallResult,
		ToolName:   result.Name,
		ToolCallID: result.ToolCallID,
		IsError:    result.IsError,
	})
}

// Fail reports a transport failure and returns the envelope that surfaces it
// to the caller.
func (m *Machine) Fail(err error) ai.Envelope {
	m.emit(event.Event{Type: event.TransportError, Error: err})
	return ai.TextDelta(fmt.Sprintf("\n[%s error]: %v\n", m.provider, err))
}

// Truncate ends the turn because the budget ran out and returns the notice
// to yield.
func (m *Machine) Truncate() ai.Envelope {
	m.emit(event.Event{Type: event.TurnTruncated, Message: fmt.Sprintf("max turns %d", m.maxTurns)})
	m.Finish()
	return ai.TextDelta(ai.TruncationNotice(m.maxTurns))
}

// Finish completes the turn. It is a no-op when already Completed.
func (m *Machine) Finish() {
	if m.state == event.StateCompleted {
		return
	}
	m.to(event.StateCompleted)
	m.emit(event.Event{Type: event.TurnEnd})
}

func (m *Machine) to(next event.State) bool {
	if !m.state.CanTransition(next) {
		m.emit(event.Event{
			Type:    event.IllegalTransition,
			State:   m.state,
			Message: fmt.Sprintf("%s -> %s", m.state, next),
			Error:   fmt.Errorf("turn: illegal transition %s -> %s", m.state, next),
		})
		return false
	}
	m.state = next
	m.emit(event.Event{Type: event.StateChange, State: next})
	return true
}

func (m *Machine) emit(e event.Event) {
	e.Provider = m.provider
	e.Round = m.round
	m.obs.Emit(e)
}
