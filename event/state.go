package event

// State is a node of the turn state machine:
//
//	Idle -> Streaming -> (ToolsPending -> Executing -> Streaming)* -> Completed
type State string

const (
	StateIdle         State = "idle"
	StateStreaming    State = "streaming"
	StateToolsPending State = "tools_pending"
	StateExecuting    State = "executing"
	StateCompleted    State = "completed"
)

var transitions = map[State][]State{
	StateIdle:         {StateStreaming, StateCompleted},
	StateStreaming:    {StateToolsPending, StateCompleted},
	StateToolsPending: {StateExecuting, StateCompleted},
	StateExecuting:    {StateStreaming, StateCompleted},
	StateCompleted:    {StateIdle},
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
