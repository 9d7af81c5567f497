// Package session holds the chat state of one conversation: the message
// history, execution plans, the typing indicator and the progress lines
// shown while the backend works. It performs no I/O; callers feed it
// decoded frames and send the frames it returns.
package session

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/controlVector/controlvector-frontend/client"
)

// Session is not safe for concurrent use. It is owned by the UI loop.
type Session struct {
	messages       []Message
	typing         TypingIndicator
	conversationID string
	pending        *Intent

	thinking    []string
	thinkingIdx int

	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

// New returns an empty session bound to conversationID. A nil logger
// discards.
func New(conversationID string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		conversationID: conversationID,
		log:            log,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Messages returns a copy of the history. Plans are shared pointers and
// must be treated as read-only.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int { return len(s.messages) }

func (s *Session) Typing() TypingIndicator { return s.typing }

func (s *Session) ConversationID() string { return s.conversationID }

// SetConversationID rebinds the session, e.g. after the store handed out a
// fresh id.
func (s *Session) SetConversationID(id string) { s.conversationID = id }

// PendingIntent is the intent predicted for the last unanswered message.
func (s *Session) PendingIntent() (Intent, bool) {
	if s.pending == nil {
		return Intent{}, false
	}
	return *s.pending, true
}

// ThinkingMessage returns the current progress line, or "" when the
// backend is idle.
func (s *Session) ThinkingMessage() string {
	if !s.typing.IsTyping || len(s.thinking) == 0 {
		return ""
	}
	return s.thinking[s.thinkingIdx%len(s.thinking)]
}

// AdvanceThinking rotates to the next progress line. It reports false when
// nothing is rotating, so the caller can stop its timer.
func (s *Session) AdvanceThinking() bool {
	if !s.typing.IsTyping || len(s.thinking) == 0 {
		return false
	}
	s.thinkingIdx = (s.thinkingIdx + 1) % len(s.thinking)
	return true
}

// ActivePlan returns the most recent outstanding plan.
func (s *Session) ActivePlan() (ExecutionPlan, bool) {
	if i := s.activePlanIndex(); i >= 0 {
		return *s.messages[i].ExecutionPlan, true
	}
	return ExecutionPlan{}, false
}

// SendUserMessage records text as a user message, predicts its intent and
// returns the frame to send. ok is false for blank input.
func (s *Session) SendUserMessage(text string) (frame client.UserMessageFrame, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return frame, false
	}
	now := s.now()
	intent := PredictIntent(text)
	s.append(Message{Type: MessageUser, Content: text, Timestamp: now})
	s.pending = &intent
	s.startTyping(TypingIndicator{IsTyping: true, Agent: intent.Agent})
	return client.NewUserMessage(text, s.conversationID, now), true
}

// ExecuteStep optimistically marks a step executing and returns the
// step-execution request. Only pending or failed steps of a plan that is
// neither cancelled nor completed can be executed.
func (s *Session) ExecuteStep(stepID string) (frame client.UserMessageFrame, ok bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		plan := s.messages[i].ExecutionPlan
		if plan == nil || plan.Status == PlanCancelled || plan.Status == PlanCompleted {
			continue
		}
		step, found := plan.Step(stepID)
		if !found {
			continue
		}
		if step.Status != StepPending && step.Status != StepFailed {
			return frame, false
		}
		next, _ := plan.WithStepStatus(stepID, StepExecuting)
		s.replacePlan(i, next)
		s.log.Debug("step_execute", "plan_id", next.ID, "step_id", stepID)
		content := "Execute step: " + step.Description
		return client.NewUserMessage(content, s.conversationID, s.now()).
			WithStepExecution(step.ID, step.Name()), true
	}
	return frame, false
}

// CompleteStepFallback marks a step completed when no authoritative result
// arrived in time. It is a no-op unless the step is still executing.
func (s *Session) CompleteStepFallback(stepID string) bool {
	changed := false
	for i, m := range s.messages {
		if m.ExecutionPlan == nil {
			continue
		}
		step, ok := m.ExecutionPlan.Step(stepID)
		if !ok || step.Status != StepExecuting {
			continue
		}
		next, _ := m.ExecutionPlan.WithStepStatus(stepID, StepCompleted)
		s.replacePlan(i, next)
		changed = true
	}
	if changed {
		s.log.Debug("step_fallback_completed", "step_id", stepID)
	}
	return changed
}

// ApprovePlan moves an awaiting plan to approved and returns the message
// announcing the decision.
func (s *Session) ApprovePlan(planID string) (client.UserMessageFrame, bool) {
	return s.resolvePlan(planID, PlanApproved, "Approve execution plan: ")
}

// CancelPlan moves an awaiting plan to cancelled and returns the message
// announcing the decision.
func (s *Session) CancelPlan(planID string) (client.UserMessageFrame, bool) {
	return s.resolvePlan(planID, PlanCancelled, "Cancel execution plan: ")
}

func (s *Session) resolvePlan(planID string, status PlanStatus, prefix string) (frame client.UserMessageFrame, ok bool) {
	for i, m := range s.messages {
		plan := m.ExecutionPlan
		if plan == nil || plan.ID != planID {
			continue
		}
		if plan.Status != PlanAwaitingApproval {
			return frame, false
		}
		s.replacePlan(i, plan.WithStatus(status))
		s.log.Info("plan_resolved", "plan_id", planID, "status", string(status))
		return client.NewUserMessage(prefix+plan.Objective, s.conversationID, s.now()), true
	}
	return frame, false
}

// AddSystemMessage appends a locally generated system line.
func (s *Session) AddSystemMessage(content string) {
	s.append(Message{Type: MessageSystem, Content: content})
}

// AbortTyping drops the typing state and pending intent when an outbound
// message never reached the backend.
func (s *Session) AbortTyping() {
	s.pending = nil
	s.stopTyping()
}

func (s *Session) append(m Message) {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	s.messages = append(s.messages, m)
}

// replacePlan swaps the plan pointer; the previous plan value is untouched.
func (s *Session) replacePlan(i int, plan ExecutionPlan) {
	s.messages[i].ExecutionPlan = &plan
}

func (s *Session) activePlanIndex() int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if p := s.messages[i].ExecutionPlan; p != nil && p.Outstanding() {
			return i
		}
	}
	return -1
}

func (s *Session) lastUserContent() string {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Type == MessageUser {
			return s.messages[i].Content
		}
	}
	return ""
}

func (s *Session) startTyping(t TypingIndicator) {
	intent := ""
	if s.pending != nil {
		intent = s.pending.Name
	}
	s.typing = t
	s.thinking = ThinkingMessages(t.Operation, intent, t.Agent)
	s.thinkingIdx = 0
}

func (s *Session) stopTyping() {
	s.typing = TypingIndicator{}
	s.thinking = nil
	s.thinkingIdx = 0
}
