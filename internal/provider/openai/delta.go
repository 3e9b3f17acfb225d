package openai

import (
	"sort"

	"github.com/google/uuid"

	ai "github.com/Holovkat/Auto-Claude"
)

// Delta is one streamed chunk reduced to the fields the engine reads.
type Delta struct {
	Content   string
	ToolCalls []ToolCallDelta
}

// ToolCallDelta is a fragment of a tool call addressed by its stream index.
// Any field may be empty; fragments are concatenated in arrival order.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

type partialCall struct {
	id, name, args string
}

// accumulator rebuilds tool calls from index-addressed fragments.
type accumulator struct {
	slots map[int]*partialCall
}

func (a *accumulator) add(d ToolCallDelta) {
	if a.slots == nil {
		a.slots = make(map[int]*partialCall)
	}
	slot, ok := a.slots[d.Index]
	if !ok {
		slot = &partialCall{}
		a.slots[d.Index] = slot
	}
	slot.id += d.ID
	slot.name += d.Name
	slot.args += d.Arguments
}

func (a *accumulator) empty() bool { return len(a.slots) == 0 }

// calls returns the reconstructed calls ordered by index. Arguments that do
// not parse as a JSON object become an empty mapping.
func (a *accumulator) calls() []ai.ToolCall {
	indexes := make([]int, 0, len(a.slots))
	for i := range a.slots {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]ai.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		slot := a.slots[i]
		id := slot.id
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out = append(out, ai.ToolCall{ID: id, Name: slot.name, Arguments: ai.ParseArguments(slot.args)})
	}
	return out
}
