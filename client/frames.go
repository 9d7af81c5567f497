package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound frame discriminants.
const (
	FrameAIResponse          = "ai_response"
	FrameTypingIndicator     = "typing_indicator"
	FrameStepCompleted       = "step_completed"
	FrameStepFailed          = "step_failed"
	FrameError               = "error"
	FrameRecoveryStarted     = "recovery_started"
	FrameRecoveryProgress    = "recovery_progress"
	FrameRecoverySuccess     = "recovery_success"
	FrameRecoveryEscalated   = "recovery_escalated"
	FrameConversationCreated = "conversation_created"
	FramePong                = "pong"
)

// Outbound frame discriminants.
const (
	FrameSubscribe   = "subscribe"
	FramePing        = "ping"
	FrameUserMessage = "user_message"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// -- Inbound events ------------------------------------------------------------

// AIResponseEvent is a generic assistant reply. Plans and step results are
// also delivered through it; see session.IsExecutionPlan.
type AIResponseEvent struct {
	Content    string   `json:"content"`
	Timestamp  string   `json:"timestamp"`
	Intent     string   `json:"intent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Agent      string   `json:"agent,omitempty"`
}

// TypingIndicatorEvent replaces the typing state wholesale.
type TypingIndicatorEvent struct {
	IsTyping  bool   `json:"is_typing"`
	Agent     string `json:"agent,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// StepCompletedEvent reports a plan step finishing successfully.
type StepCompletedEvent struct {
	StepID   string `json:"step_id"`
	StepName string `json:"step_name,omitempty"`
}

// StepFailedEvent reports a plan step failing.
type StepFailedEvent struct {
	StepID   string `json:"step_id"`
	StepName string `json:"step_name,omitempty"`
}

// ErrorEvent is a remote-reported error.
type ErrorEvent struct {
	Message string `json:"message,omitempty"`
}

// RecoveryEvent covers the four recovery_* frames; Kind holds the frame type.
type RecoveryEvent struct {
	Kind        string   `json:"type"`
	Message     string   `json:"message"`
	RecoveryID  string   `json:"recovery_id"`
	Step        int      `json:"step,omitempty"`
	TotalSteps  int      `json:"total_steps,omitempty"`
	Attempt     int      `json:"attempt,omitempty"`
	Attempts    int      `json:"attempts,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ConversationCreatedEvent carries a server-assigned conversation id.
type ConversationCreatedEvent struct {
	ConversationID string `json:"conversation_id"`
}

// PongEvent acknowledges a ping.
type PongEvent struct{}

// UnknownFrame is any frame with an unrecognised discriminant.
type UnknownFrame struct {
	Type string
	Raw  json.RawMessage
}

// DecodeFrame converts one inbound JSON frame into its typed event.
func DecodeFrame(data []byte) (any, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch base.Type {
	case FrameAIResponse:
		return decodeAs[AIResponseEvent](base.Type, data)
	case FrameTypingIndicator:
		return decodeAs[TypingIndicatorEvent](base.Type, data)
	case FrameStepCompleted:
		return decodeAs[StepCompletedEvent](base.Type, data)
	case FrameStepFailed:
		return decodeAs[StepFailedEvent](base.Type, data)
	case FrameError:
		return decodeAs[ErrorEvent](base.Type, data)
	case FrameRecoveryStarted, FrameRecoveryProgress, FrameRecoverySuccess, FrameRecoveryEscalated:
		return decodeAs[RecoveryEvent](base.Type, data)
	case FrameConversationCreated:
		return decodeAs[ConversationCreatedEvent](base.Type, data)
	case FramePong:
		return PongEvent{}, nil
	default:
		return UnknownFrame{Type: base.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

func decodeAs[T any](frameType string, data []byte) (any, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", frameType, err)
	}
	return ev, nil
}

// -- Outbound frames -----------------------------------------------------------

// SubscribeFrame is sent once after the socket opens.
type SubscribeFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// PingFrame is the keep-alive frame.
type PingFrame struct {
	Type string `json:"type"`
}

// StepExecution names the plan step a user_message asks to run.
type StepExecution struct {
	StepID   string `json:"step_id"`
	StepName string `json:"step_name"`
}

// UserMessageFrame carries user input, optionally as a step-execution request.
type UserMessageFrame struct {
	Type           string         `json:"type"`
	Content        string         `json:"content"`
	ConversationID string         `json:"conversation_id"`
	Timestamp      string         `json:"timestamp"`
	StepExecution  *StepExecution `json:"step_execution,omitempty"`
}

func NewSubscribe(conversationID string) SubscribeFrame {
	return SubscribeFrame{Type: FrameSubscribe, ConversationID: conversationID}
}

func NewPing() PingFrame {
	return PingFrame{Type: FramePing}
}

func NewUserMessage(content, conversationID string, at time.Time) UserMessageFrame {
	return UserMessageFrame{
		Type:           FrameUserMessage,
		Content:        content,
		ConversationID: conversationID,
		Timestamp:      FormatTimestamp(at),
	}
}

// WithStepExecution returns a copy of f that requests execution of a step.
func (f UserMessageFrame) WithStepExecution(stepID, stepName string) UserMessageFrame {
	f.StepExecution = &StepExecution{StepID: stepID, StepName: stepName}
	return f
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
