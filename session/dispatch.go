package session

import (
	"github.com/controlVector/controlvector-frontend/client"
)

const genericErrorText = "An unexpected error occurred"

// Apply performs the state transition for one decoded inbound event.
// Events must be applied in arrival order.
func (s *Session) Apply(ev any) Outcome {
	var out Outcome
	switch ev := ev.(type) {
	case client.AIResponseEvent:
		s.applyAIResponse(ev)
	case client.TypingIndicatorEvent:
		was := s.typing.IsTyping
		t := TypingIndicator{IsTyping: ev.IsTyping, Agent: ev.Agent, Operation: ev.Operation}
		switch {
		case !ev.IsTyping:
			s.stopTyping()
		case !was:
			s.startTyping(t)
			out.TypingStarted = true
		default:
			s.typing = t
		}
	case client.StepCompletedEvent:
		s.setStepStatus(ev.StepID, StepCompleted)
	case client.StepFailedEvent:
		if step, ok := s.setStepStatus(ev.StepID, StepFailed); ok {
			name := ev.StepName
			if name == "" {
				name = step.Description
			}
			if name == "" {
				name = step.ID
			}
			out.notify(NoticeError, "Step failed: "+name)
		}
	case client.ErrorEvent:
		text := ev.Message
		if text == "" {
			text = genericErrorText
		}
		s.log.Warn("remote_error", "message", text)
		out.notify(NoticeError, text)
		s.stopTyping()
	case client.RecoveryEvent:
		s.append(Message{
			Type:    MessageSystem,
			Content: ev.Message,
			Recovery: &Recovery{
				Kind:        ev.Kind,
				ID:          ev.RecoveryID,
				Step:        ev.Step,
				TotalSteps:  ev.TotalSteps,
				Attempt:     ev.Attempt,
				Attempts:    ev.Attempts,
				Suggestions: ev.Suggestions,
			},
		})
	case client.ConversationCreatedEvent:
		if ev.ConversationID != "" && ev.ConversationID != s.conversationID {
			s.conversationID = ev.ConversationID
			out.ConversationChanged = true
			out.notify(NoticeInfo, "Started a new conversation")
		}
	case client.PongEvent:
	case client.UnknownFrame:
		s.log.Debug("frame_unknown", "type", ev.Type)
	default:
		s.log.Debug("event_ignored", "event", ev)
	}
	return out
}

func (s *Session) applyAIResponse(ev client.AIResponseEvent) {
	msg := Message{
		Type:       MessageAI,
		Content:    ev.Content,
		Intent:     ev.Intent,
		Confidence: ev.Confidence,
		Agent:      ev.Agent,
	}
	if t, ok := client.ParseTimestamp(ev.Timestamp); ok {
		msg.Timestamp = t
	}

	switch {
	case IsStepResult(ev.Content):
		status := StepCompleted
		if IsStepFailure(ev.Content) {
			status = StepFailed
		}
		if i := s.activePlanIndex(); i >= 0 {
			plan := *s.messages[i].ExecutionPlan
			for _, step := range plan.Steps {
				if step.Status == StepExecuting {
					plan, _ = plan.WithStepStatus(step.ID, status)
				}
			}
			s.replacePlan(i, plan)
		}
	case IsExecutionPlan(ev.Content) && s.activePlanIndex() < 0:
		plan := DeploymentPlan(s.lastUserContent())
		msg.Type = MessageExecutionPlan
		msg.ExecutionPlan = &plan
		s.log.Info("plan_proposed", "plan_id", plan.ID, "steps", len(plan.Steps))
	}

	s.append(msg)
	s.pending = nil
	s.stopTyping()
}

// setStepStatus applies status to every plan holding stepID and returns the
// step as it was in the most recent such plan.
func (s *Session) setStepStatus(stepID string, status StepStatus) (ExecutionStep, bool) {
	var (
		found ExecutionStep
		ok    bool
	)
	for i, m := range s.messages {
		if m.ExecutionPlan == nil {
			continue
		}
		step, has := m.ExecutionPlan.Step(stepID)
		if !has {
			continue
		}
		next, _ := m.ExecutionPlan.WithStepStatus(stepID, status)
		s.replacePlan(i, next)
		found, ok = step, true
	}
	if !ok {
		s.log.Debug("step_unmatched", "step_id", stepID, "status", string(status))
	}
	return found, ok
}
