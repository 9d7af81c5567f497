package session

import "time"

// MessageType identifies who produced a message and how it renders.
type MessageType string

const (
	MessageUser          MessageType = "user"
	MessageAI            MessageType = "ai"
	MessageSystem        MessageType = "system"
	MessageExecutionPlan MessageType = "execution_plan"
)

// Message is one entry of the conversation. Messages are never edited
// except for ExecutionPlan, which is replaced by a new plan value.
type Message struct {
	ID            string
	Type          MessageType
	Content       string
	Timestamp     time.Time
	Intent        string
	Confidence    *float64
	Agent         string
	ExecutionPlan *ExecutionPlan
	Recovery      *Recovery
}

// Recovery is the metadata carried by recovery_* system messages.
type Recovery struct {
	Kind        string
	ID          string
	Step        int
	TotalSteps  int
	Attempt     int
	Attempts    int
	Suggestions []string
}

// TypingIndicator is transient and never part of the history.
type TypingIndicator struct {
	IsTyping  bool
	Agent     string
	Operation string
}

// NoticeLevel classifies a user-visible notification.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Notice is a transient notification produced by a state transition.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Outcome describes the side effects the owner of a Session must carry out
// after applying an event.
type Outcome struct {
	Notices             []Notice
	ConversationChanged bool
	TypingStarted       bool
}

func (o *Outcome) notify(level NoticeLevel, text string) {
	o.Notices = append(o.Notices, Notice{Level: level, Text: text})
}
