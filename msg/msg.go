// Package msg defines the tea.Msg types exchanged inside the chat program
// that do not originate from the socket. It has no upstream imports.
package msg

// -- Timers --

// TickMsg drives toast expiry and elapsed-time display.
type TickMsg struct{}

// ThinkingTick rotates the progress line. Ticks from an older generation
// are ignored.
type ThinkingTick struct {
	Gen int
}

// ReconnectDue fires once after an unexpected socket closure.
type ReconnectDue struct{}

// StepFallbackDue fires when an executed step has had no result in time.
// Run identifies the execution that armed it.
type StepFallbackDue struct {
	StepID string
	Run    int
}

// -- REST results --

// ConversationReady carries the conversation id to subscribe to.
type ConversationReady struct {
	ID  string
	Err error
}

// RetryConversation schedules another conversation lookup.
type RetryConversation struct{}

// OnboardingResult summarises the credential store.
type OnboardingResult struct {
	Complete   bool
	Configured []string
	HasSSHKey  bool
	Err        error
}

// ConversationSaved reports the outcome of persisting a new id.
type ConversationSaved struct {
	Err error
}

// -- Socket writes --

// SendResult reports the outcome of an outbound frame.
type SendResult struct {
	Kind string // "message", "step", "plan"
	Err  error
}
