// Package event carries engine observability. Adapters report turn state
// transitions, tool execution and transport failures to an Observer passed
// in at construction; nothing is written to process-wide state.
package event

import (
	"context"
	"log/slog"
	"time"
)

// Type identifies the kind of event.
type Type string

// Turn lifecycle
const (
	// TurnStart fires when a submitted message starts streaming.
	TurnStart Type = "turn_start"
	// StateChange fires on every transition of the turn state machine.
	StateChange Type = "state_change"
	// TurnEnd fires when the turn completes, including on truncation.
	TurnEnd Type = "turn_end"
	// TurnTruncated fires when the tool round budget is exhausted.
	TurnTruncated Type = "turn_truncated"
	// IllegalTransition fires when an adapter asks for a transition the
	// state machine does not allow. The state is left unchanged.
	IllegalTransition Type = "illegal_transition"
)

// Tool execution
const (
	ToolCallStart  Type = "tool_call_start"
	ToolCallResult Type = "tool_call_result"
)

// Transport
const (
	// RequestStart fires before each backend request of a turn.
	RequestStart Type = "request_start"
	// Retrying fires before sleeping between attempts to open a stream.
	Retrying Type = "retrying"
	// TransportError fires when a stream or subprocess fails mid-turn.
	TransportError Type = "transport_error"
	// SessionSaved fires when a backend session identifier is persisted.
	SessionSaved Type = "session_saved"
)

// Event is an observable occurrence inside an engine.
type Event struct {
	Type Type
	// Provider names the adapter that emitted the event.
	Provider string
	// Round is the 1-indexed backend request within the turn.
	Round int
	// State is set on StateChange events.
	State State
	// ToolName and ToolCallID are set on tool events.
	ToolName   string
	ToolCallID string
	// IsError marks a failed tool result.
	IsError bool
	// Attempt and Delay are set on Retrying events.
	Attempt int
	Delay   time.Duration
	Error   error
	// Message carries free-form context such as a session id or command line.
	Message   string
	Timestamp time.Time
}

// Observer receives engine events synchronously. It must not block.
type Observer func(Event)

// Emit stamps e and hands it to o. A nil Observer discards the event.
func (o Observer) Emit(e Event) {
	if o == nil {
		return
	}
	e.Timestamp = time.Now()
	o(e)
}

// Multi fans an event out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	return func(e Event) {
		for _, o := range observers {
			if o != nil {
				o(e)
			}
		}
	}
}

// SlogObserver logs events through logger. Transport errors log at warn,
// everything else at debug unless verbose promotes it to info.
func SlogObserver(logger *slog.Logger, verbose bool) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelDebug
	if verbose {
		level = slog.LevelInfo
	}
	return func(e Event) {
		attrs := []any{"provider", e.Provider}
		if e.Round > 0 {
			attrs = append(attrs, "round", e.Round)
		}
		if e.State != "" {
			attrs = append(attrs, "state", string(e.State))
		}
		if e.ToolName != "" {
			attrs = append(attrs, "tool", e.ToolName, "call_id", e.ToolCallID)
		}
		if e.Attempt > 0 {
			attrs = append(attrs, "attempt", e.Attempt, "delay", e.Delay)
		}
		if e.Message != "" {
			attrs = append(attrs, "detail", e.Message)
		}
		switch {
		case e.Type == TransportError, e.Type == IllegalTransition:
			logger.Warn(string(e.Type), append(attrs, "error", e.Error)...)
		case e.Error != nil:
			logger.Log(context.Background(), level, string(e.Type), append(attrs, "error", e.Error)...)
		case e.Type == ToolCallResult && e.IsError:
			logger.Log(context.Background(), level, string(e.Type), append(attrs, "is_error", true)...)
		default:
			logger.Log(context.Background(), level, string(e.Type), attrs...)
		}
	}
}
