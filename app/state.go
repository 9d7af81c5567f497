package app

// State represents the current application state.
type State int

const (
	StateConnecting State = iota // waiting for the conversation and socket
	StateIdle                    // ready for user input
	StateProcessing              // a message is in flight and the backend is typing
	StatePlanReview              // an execution plan awaits approval
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StatePlanReview:
		return "plan_review"
	default:
		return "unknown"
	}
}
