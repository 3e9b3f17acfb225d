package agui

import (
	"iter"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/Holovkat/Auto-Claude"
)

// RoleAssistant is the AG-UI role of engine output.
const RoleAssistant = "assistant"

// Mapper converts one run's envelopes to AG-UI events.
type Mapper struct {
	threadID string
	runID    string

	// messageID is the open text message, if any.
	messageID string
}

// NewMapper creates a Mapper. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{threadID: threadID, runID: runID}
}

func (m *Mapper) ThreadID() string { return m.threadID }

func (m *Mapper) RunID() string { return m.runID }

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// Map converts one envelope. A text delta opens a text message when none is
// open; any other envelope closes the open one first.
func (m *Mapper) Map(env ai.Envelope) []events.Event {
	switch env.Kind {
	case ai.KindTextDelta:
		if env.Text == "" {
			return nil
		}
		var out []events.Event
		if m.messageID == "" {
			m.messageID = events.GenerateMessageID()
			out = append(out, events.NewTextMessageStartEvent(m.messageID, events.WithRole(RoleAssistant)))
		}
		return append(out, events.NewTextMessageContentEvent(m.messageID, env.Text))

	case ai.KindToolUse:
		return append(m.Flush(),
			events.NewToolCallStartEvent(env.Call.ID, env.Call.Name),
			events.NewToolCallArgsEvent(env.Call.ID, env.Call.ArgumentsJSON()),
			events.NewToolCallEndEvent(env.Call.ID),
		)

	case ai.KindToolOutcome:
		return append(m.Flush(),
			events.NewToolCallResultEvent(events.GenerateMessageID(), env.Result.ToolCallID, env.Result.Content),
		)
	}
	return nil
}

// Flush closes the open text message, if any.
func (m *Mapper) Flush() []events.Event {
	if m.messageID == "" {
		return nil
	}
	ev := events.NewTextMessageEndEvent(m.messageID)
	m.messageID = ""
	return []events.Event{ev}
}

// MapStream converts a whole turn, framed by RUN_STARTED and RUN_FINISHED.
func (m *Mapper) MapStream(envs iter.Seq[ai.Envelope]) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		if !yield(m.RunStarted()) {
			return
		}
		for env := range envs {
			for _, ev := range m.Map(env) {
				if !yield(ev) {
					return
				}
			}
		}
		for _, ev := range m.Flush() {
			if !yield(ev) {
				return
			}
		}
		yield(m.RunFinished())
	}
}
